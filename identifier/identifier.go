/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package identifier mints and parses the time-ordered UUIDs used as document ids.
//
// The last six bytes of an id are its node. A child id minted with NewChild carries
// the node of its parent, which is what lets partitionkey colocate related documents.
package identifier

import (
	"encoding/hex"
	"fmt"

	"github.com/a11yscan/scanstore/errors"
	"github.com/google/uuid"
)

// NodeSize is the number of bytes in an identifier node.
const NodeSize = 6

const nodeOffset = 16 - NodeSize

// Node returns the hex encoded node segment of id.
func Node(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", errors.NewInvalidIdentifierError(id, err.Error())
	}
	return hex.EncodeToString(u.NodeID()), nil
}

// Generator mints document ids.
type Generator struct {
	newUUID func() (uuid.UUID, error)
}

// NewGenerator returns a generator backed by UUIDv7.
func NewGenerator() *Generator {
	return &Generator{newUUID: uuid.NewV7}
}

// New returns a fresh time-ordered id with a random node.
func (g *Generator) New() (string, error) {
	u, err := g.newUUID()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return u.String(), nil
}

// NewChild returns a fresh id that shares the node of parentID.
func (g *Generator) NewChild(parentID string) (string, error) {
	parent, err := uuid.Parse(parentID)
	if err != nil {
		return "", errors.NewInvalidIdentifierError(parentID, err.Error())
	}

	child, err := g.newUUID()
	if err != nil {
		return "", fmt.Errorf("failed to generate child id: %w", err)
	}
	copy(child[nodeOffset:], parent[nodeOffset:])

	return child.String(), nil
}
