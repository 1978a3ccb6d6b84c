/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/registry"
	"github.com/a11yscan/scanstore/storagemodels"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := scanstore.GetVersionInfo()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	return cmd
}

func parseDocumentType(s string) (partitionkey.DocumentType, error) {
	dt, ok := partitionkey.ParseDocumentType(s)
	if !ok {
		names := make([]string, len(partitionkey.DocumentTypes))
		for i, t := range partitionkey.DocumentTypes {
			names[i] = string(t)
		}
		return "", fmt.Errorf("unknown document type %q (expected one of %s)", s, strings.Join(names, ", "))
	}
	return dt, nil
}

func newPartitionKeyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "partition-key <type> <id>",
		Short: "Derive the partition key of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := parseDocumentType(args[0])
			if err != nil {
				return err
			}
			keys, err := a.partitionKeys()
			if err != nil {
				return err
			}

			pk, err := keys.CreatePartitionKeyForDocument(dt, args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pk)
			return err
		},
	}
}

func newIDCommand(a *app) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "new-id",
		Short: "Mint a document id, optionally as the child of another id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				id  string
				err error
			)
			if parent != "" {
				id, err = a.ids.NewChild(parent)
			} else {
				id, err = a.ids.New()
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent id whose node the new id shares")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Read one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := parseDocumentType(args[0])
			if err != nil {
				return err
			}
			keys, err := a.partitionKeys()
			if err != nil {
				return err
			}
			pk, err := keys.CreatePartitionKeyForDocument(dt, args[1])
			if err != nil {
				return err
			}

			b, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := store[storagemodels.RawDocument](b)
			if err != nil {
				return err
			}

			doc, err := raw.GetOne(cmd.Context(), args[1], pk)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), *doc, a.logger)
		},
	}
}

func newQueryCommand(a *app) *cobra.Command {
	var (
		maxItemCount int32
		params       []string
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a query and stream every matching document as JSON lines",
		Long: `Run a query against the configured backend and write one JSON document per line.

Without --param the text is sent as a raw query (SQL for memory and postgres,
PartiQL for DynamoDB). Each --param name=value turns it into a parameterized
query; values are parsed as JSON when possible and taken as strings otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			query, err := buildQuery(args[0], params)
			if err != nil {
				return err
			}
			if maxItemCount <= 0 {
				cfg, err := a.config()
				if err != nil {
					return err
				}
				maxItemCount = cfg.Paging.MaxItemCount
			}

			b, err := a.open(ctx)
			if err != nil {
				return err
			}
			raw, err := store[storagemodels.RawDocument](b)
			if err != nil {
				return err
			}
			collector, err := a.metrics()
			if err != nil {
				return err
			}

			executor := decorate[storagemodels.RawDocument](raw, a.cfg, b, collector)
			iterable := paging.NewQueryResultsIterable(executor, query,
				paging.WithMaxItemCount(maxItemCount),
				paging.WithLogger(a.logger),
				paging.WithProgressHandler(func(p storagemodels.StreamProgress) {
					a.logger.Debug("query progress",
						zap.Int("pages", p.PagesProcessed),
						zap.Int64("items", p.ItemsProcessed),
					)
				}),
			)

			out := cmd.OutOrStdout()
			for doc, err := range iterable.All(ctx) {
				if err != nil {
					return err
				}
				if err := writeDocument(out, doc, a.logger); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int32VarP(&maxItemCount, "max-item-count", "n", 0, "Page-size hint (default from config)")
	cmd.Flags().StringArrayVarP(&params, "param", "P", nil, "Query parameter as name=value (repeatable)")
	return cmd
}

// buildQuery returns a RawQuery, or a ParameterizedQuery when params are given.
func buildQuery(text string, params []string) (storagemodels.Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text is empty")
	}
	if len(params) == 0 {
		return storagemodels.RawQuery{Text: text}, nil
	}

	parsed := make([]storagemodels.QueryParameter, 0, len(params))
	for _, p := range params {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected name=value)", p)
		}

		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		parsed = append(parsed, storagemodels.QueryParameter{Name: name, Value: v})
	}

	return storagemodels.ParameterizedQuery{Text: text, Parameters: parsed}, nil
}

// writeDocument writes doc as one JSON line, decoded into its registered type when
// the type is known and passed through unchanged otherwise.
func writeDocument(w io.Writer, doc storagemodels.RawDocument, logger *zap.Logger) error {
	var out any = doc
	if typed, err := registry.Decode(doc); err == nil {
		out = typed
	} else if logger != nil {
		logger.Debug("writing undecoded document", zap.String("id", doc.ID), zap.Error(err))
	}

	return json.NewEncoder(w).Encode(out)
}
