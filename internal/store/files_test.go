package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDataFiles(t *testing.T) {
	ctx := testContext()
	dir := filepath.Join(t.TempDir(), "data")

	paths, err := EnsureDataFiles(ctx, dir)
	if err != nil {
		t.Fatalf("EnsureDataFiles failed: %v", err)
	}
	for _, p := range []string{paths.Products, paths.Sales, paths.SaleItems, paths.Users} {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("expected %s to be created empty, size = %d", p, info.Size())
		}
	}
}

func TestEnsureDataFiles_KeepsExistingContent(t *testing.T) {
	ctx := testContext()
	dir := t.TempDir()
	existing := filepath.Join(dir, productFileName)
	if err := os.WriteFile(existing, []byte("P001|Burger|5.99|Food||50\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := EnsureDataFiles(ctx, dir); err != nil {
		t.Fatalf("EnsureDataFiles failed: %v", err)
	}
	content, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "P001|Burger|5.99|Food||50\n" {
		t.Errorf("existing file was touched: %q", content)
	}
}
