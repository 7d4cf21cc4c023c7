package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

func TestLoadCatalog(t *testing.T) {
	entries, err := loadCatalog(strings.NewReader(`
books:
  - title: Dune
    author: Frank Herbert
    isbn: "978-0441172719"
    copies: 3
  - title: Emma
    author: Jane Austen
`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Copies)
	assert.Equal(t, 1, entries[1].Copies)

	_, err = loadCatalog(strings.NewReader("books:\n  - title: X\n    pages: 3\n"))
	assert.Error(t, err)

	entries, err = loadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBundledCatalogImports(t *testing.T) {
	f, err := os.Open("catalog.yaml")
	require.NoError(t, err)
	defer f.Close()
	entries, err := loadCatalog(f)
	require.NoError(t, err)

	lm, err := library.NewLibraryManager(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	defer lm.Close()

	var out bytes.Buffer
	res := importCatalog(context.Background(), &out, lm.Catalog, entries)
	assert.Equal(t, len(entries), res.imported)
	assert.Zero(t, res.failed)

	// Importing again skips everything that has an ISBN.
	res = importCatalog(context.Background(), &out, lm.Catalog, entries)
	assert.Zero(t, res.failed)
	assert.Equal(t, len(entries)-1, res.skipped)

	books, err := lm.Catalog.Search(context.Background(), "tolkien")
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("books:\n  - title: Dune\n    author: Frank Herbert\n  - title: \"\"\n    author: Nobody\n"), 0o600))

	var out bytes.Buffer
	cmd := newImportCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "library.db"), "--reset", catalog})
	err := cmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, out.String(), "Successfully imported: 1 books")
	assert.Contains(t, out.String(), "Errors: 1")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}
