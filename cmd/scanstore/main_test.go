/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/config"
	"github.com/a11yscan/scanstore/identifier"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

const fixtureID = "1e0e9a8a-3b5c-7d4e-8f60-0a1b2c3d4e5f"

// newTestApp returns an app on a fresh in-memory backend.
func newTestApp(t *testing.T) *app {
	t.Helper()

	a := newApp()
	a.cfg = config.Default()
	a.logger = zap.NewNop()

	b, err := openBackend(context.Background(), a.cfg, a.logger)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	a.backend = b
	return a
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(s string) []string {
	var result []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result
}

func TestPartitionKeyCommand(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "partition-key", "website", fixtureID)
	if err != nil {
		t.Fatalf("partition-key failed: %v", err)
	}
	if diff := cmp.Diff("website-886\n", out); diff != "" {
		t.Errorf("partition key mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, a, "partition-key", "user", fixtureID); err == nil || !strings.Contains(err.Error(), "unknown document type") {
		t.Errorf("Expected unknown document type error, got %v", err)
	}
	if _, err := run(t, a, "partition-key", "page", "not-a-uuid"); err == nil {
		t.Error("Expected error for a malformed id")
	}
}

func TestNewIDCommand(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "new-id", "--parent", fixtureID)
	if err != nil {
		t.Fatalf("new-id failed: %v", err)
	}

	child := strings.TrimSpace(out)
	want, _ := identifier.Node(fixtureID)
	got, err := identifier.Node(child)
	if err != nil {
		t.Fatalf("new-id printed an invalid id %q: %v", child, err)
	}
	if got != want {
		t.Errorf("Expected node %s, got %s", want, got)
	}

	out, err = run(t, a, "new-id")
	if err != nil {
		t.Fatalf("new-id failed: %v", err)
	}
	if _, err := identifier.Node(strings.TrimSpace(out)); err != nil {
		t.Errorf("new-id printed an invalid id %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, newApp(), "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("version printed invalid JSON %q: %v", out, err)
	}
	if info["version"] == "" {
		t.Errorf("Expected a version, got %v", info)
	}
}

func TestWebsiteAndPageCommands(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "website", "create", "Example", "https://example.com")
	if err != nil {
		t.Fatalf("website create failed: %v", err)
	}
	var site storagemodels.Website
	if err := json.Unmarshal([]byte(out), &site); err != nil {
		t.Fatalf("invalid website JSON %q: %v", out, err)
	}

	var want []string
	for _, path := range []string{"/a", "/b", "/c"} {
		out, err := run(t, a, "page", "create", site.ID, "https://example.com"+path)
		if err != nil {
			t.Fatalf("page create failed: %v", err)
		}
		var page storagemodels.Page
		if err := json.Unmarshal([]byte(out), &page); err != nil {
			t.Fatalf("invalid page JSON %q: %v", out, err)
		}
		want = append(want, page.URL)
	}

	out, err = run(t, a, "page", "list", site.ID)
	if err != nil {
		t.Fatalf("page list failed: %v", err)
	}

	var got []string
	for _, line := range lines(out) {
		var page storagemodels.Page
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			t.Fatalf("invalid page JSON %q: %v", line, err)
		}
		got = append(got, page.URL)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listed pages mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, a, "website", "delete", site.ID); err != nil {
		t.Fatalf("website delete failed: %v", err)
	}
	if _, err := run(t, a, "website", "delete", site.ID); err == nil {
		t.Error("Expected deleting a missing website to fail")
	}
}

func seedRawDocuments(t *testing.T, a *app, docs ...storagemodels.RawDocument) {
	t.Helper()

	raw, err := store[storagemodels.RawDocument](a.backend)
	if err != nil {
		t.Fatal(err)
	}
	for _, doc := range docs {
		if err := raw.Put(context.Background(), doc); err != nil {
			t.Fatalf("Failed to seed %s: %v", doc.ID, err)
		}
	}
}

func rawDocument(t *testing.T, doc storagemodels.Document) storagemodels.RawDocument {
	t.Helper()

	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var raw storagemodels.RawDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestQueryCommandStreamsEveryPage(t *testing.T) {
	a := newTestApp(t)
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	factory := partitionkey.NewFactory()
	pk, err := factory.CreatePartitionKeyForDocument(partitionkey.Page, fixtureID)
	if err != nil {
		t.Fatal(err)
	}

	var docs []storagemodels.RawDocument
	for _, id := range []string{"p1", "p2", "p3"} {
		docs = append(docs, rawDocument(t, storagemodels.Page{
			StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: pk, ItemType: partitionkey.Page},
			URL:             "https://example.com/" + id,
		}))
	}
	docs = append(docs, rawDocument(t, storagemodels.Website{
		StorageDocument: storagemodels.StorageDocument{ID: "w1", PartitionKey: "website-1", ItemType: partitionkey.Website},
		Name:            "Example",
	}))
	seedRawDocuments(t, a, docs...)

	out, err := run(t, a, "--metrics-file", metricsFile, "query", "--max-item-count", "2", "SELECT * FROM c")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n := len(lines(out)); n != 4 {
		t.Fatalf("Expected 4 documents, got %d:\n%s", n, out)
	}

	out, err = run(t, a, "--metrics-file", metricsFile, "query", "-n", "1",
		"--param", "@partitionKey="+pk,
		"--param", "@itemType=page",
		"SELECT * FROM c WHERE c.partitionKey = @partitionKey AND c.itemType = @itemType")
	if err != nil {
		t.Fatalf("parameterized query failed: %v", err)
	}

	var ids []string
	for _, line := range lines(out) {
		var page storagemodels.Page
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			t.Fatalf("invalid page JSON %q: %v", line, err)
		}
		ids = append(ids, page.ID)
	}
	if diff := cmp.Diff([]string{"p1", "p2", "p3"}, ids); diff != "" {
		t.Errorf("query results mismatch (-want +got):\n%s", diff)
	}

	a.close()
	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(metrics), `scanstore_query_page_requests_total{backend="memory",status="200"}`) {
		t.Errorf("Expected page request counter in:\n%s", metrics)
	}
}

func TestQueryCommandArguments(t *testing.T) {
	a := newTestApp(t)

	_, err := run(t, a, "query", "--param", "@x=1", "SELECT * FROM c WHERE c.x = @x")
	if err != nil {
		t.Fatalf("matching no documents is not an error: %v", err)
	}

	_, err = run(t, a, "query", "   ")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("Expected empty query error, got %v", err)
	}

	_, err = run(t, a, "query", "--param", "novalue", "SELECT 1")
	if err == nil || !strings.Contains(err.Error(), "name=value") {
		t.Errorf("Expected parameter syntax error, got %v", err)
	}
}

func TestGetCommand(t *testing.T) {
	a := newTestApp(t)

	pk, err := partitionkey.NewFactory().CreatePartitionKeyForDocument(partitionkey.Website, fixtureID)
	if err != nil {
		t.Fatal(err)
	}
	seedRawDocuments(t, a, rawDocument(t, storagemodels.Website{
		StorageDocument: storagemodels.StorageDocument{ID: fixtureID, PartitionKey: pk, ItemType: partitionkey.Website},
		Name:            "Example",
		BaseURL:         "https://example.com",
	}))

	out, err := run(t, a, "get", "website", fixtureID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	var site storagemodels.Website
	if err := json.Unmarshal([]byte(out), &site); err != nil {
		t.Fatalf("invalid website JSON %q: %v", out, err)
	}
	if site.BaseURL != "https://example.com" {
		t.Errorf("Expected https://example.com, got %s", site.BaseURL)
	}

	if _, err := run(t, a, "get", "page", fixtureID); err == nil {
		t.Error("Expected not found for a missing page")
	}
}

func TestBuildQuery(t *testing.T) {
	query, err := buildQuery("q", []string{"@n=3", "@s=text", "@b=true"})
	if err != nil {
		t.Fatal(err)
	}

	want := storagemodels.ParameterizedQuery{
		Text: "q",
		Parameters: []storagemodels.QueryParameter{
			{Name: "@n", Value: float64(3)},
			{Name: "@s", Value: "text"},
			{Name: "@b", Value: true},
		},
	}
	if diff := cmp.Diff(storagemodels.Query(want), query); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}

	raw, err := buildQuery("SELECT * FROM c", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.(storagemodels.RawQuery); !ok {
		t.Errorf("Expected a raw query, got %T", raw)
	}
}
