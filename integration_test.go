//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scanstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/a11yscan/scanstore"
	"github.com/a11yscan/scanstore/datastore/pg"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/providers"
	"github.com/a11yscan/scanstore/storagemodels"
)

// TestPostgresScanWorkflow runs the website → pages → scan workflow against a
// real database. Set SCANSTORE_PG_CONN (or put it in .env) to enable it.
func TestPostgresScanWorkflow(t *testing.T) {
	_ = godotenv.Load()

	connString := os.Getenv("SCANSTORE_PG_CONN")
	if connString == "" {
		t.Skip("SCANSTORE_PG_CONN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pg.Connect(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	table := fmt.Sprintf("scanstore_it_%d", time.Now().UnixNano())
	defer func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
	}()

	websiteStore, err := pg.NewPostgresDataStore[storagemodels.Website](pool, table)
	if err != nil {
		t.Fatalf("Failed to create website store: %v", err)
	}
	if err := websiteStore.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	pageStore, err := pg.NewPostgresDataStore[storagemodels.Page](pool, table)
	if err != nil {
		t.Fatalf("Failed to create page store: %v", err)
	}

	mts := scanstore.NewMultiTypeStorage()
	if err := scanstore.RegisterDataStore[storagemodels.Website](mts, "postgres", websiteStore); err != nil {
		t.Fatal(err)
	}
	if err := scanstore.RegisterDataStore[storagemodels.Page](mts, "postgres", pageStore); err != nil {
		t.Fatal(err)
	}

	websites := providers.NewWebsiteProvider(websiteStore)
	pages := providers.NewPageProvider(pageStore, providers.WithPagingOptions(paging.WithMaxItemCount(2)))

	site, err := websites.Create(ctx, "Integration", "https://integration.example")
	if err != nil {
		t.Fatalf("Failed to create website: %v", err)
	}

	const pageCount = 5
	for i := 0; i < pageCount; i++ {
		if _, err := pages.Create(ctx, site.ID, fmt.Sprintf("https://integration.example/%d", i)); err != nil {
			t.Fatalf("Failed to create page %d: %v", i, err)
		}
	}

	list, err := pages.ListByWebsite(site.ID)
	if err != nil {
		t.Fatalf("Failed to list pages: %v", err)
	}

	it := list.Iterator()
	count := 0
	for it.Next(ctx) {
		if it.Item().WebsiteID != site.ID {
			t.Errorf("Page %s belongs to %s", it.Item().ID, it.Item().WebsiteID)
		}
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}

	if count != pageCount {
		t.Errorf("Expected %d pages, got %d", pageCount, count)
	}
	if n := it.PagesFetched(); n != 3 {
		t.Errorf("Expected 3 pages of results, got %d", n)
	}

	got, err := scanstore.GetDataStore[storagemodels.Website](mts, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	stored, err := got.GetOne(ctx, site.ID, site.PartitionKey)
	if err != nil {
		t.Fatalf("Failed to read website back: %v", err)
	}
	if stored.BaseURL != site.BaseURL {
		t.Errorf("Expected %s, got %s", site.BaseURL, stored.BaseURL)
	}
}
