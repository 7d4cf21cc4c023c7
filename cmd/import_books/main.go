package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"library-circulation/library"
)

type catalogEntry struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
	ISBN   string `yaml:"isbn"`
	Year   int    `yaml:"year"`
	Copies int    `yaml:"copies"`
}

type catalogFile struct {
	Books []catalogEntry `yaml:"books"`
}

func loadCatalog(r io.Reader) ([]catalogEntry, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range f.Books {
		if f.Books[i].Copies == 0 {
			f.Books[i].Copies = 1
		}
	}
	return f.Books, nil
}

type importResult struct {
	imported, skipped, failed int
}

// importCatalog saves every entry. Entries whose ISBN is already catalogued
// are skipped; other failures are reported and counted.
func importCatalog(ctx context.Context, w io.Writer, catalog *library.Catalog, entries []catalogEntry) importResult {
	var res importResult
	for _, e := range entries {
		fmt.Fprintf(w, "Importing: %s by %s... ", e.Title, e.Author)
		b, err := catalog.Save(ctx, &library.Book{
			Title:           e.Title,
			Author:          e.Author,
			Genre:           e.Genre,
			ISBN:            e.ISBN,
			YearPublished:   e.Year,
			AvailableCopies: e.Copies,
		})
		switch {
		case errors.Is(err, library.ErrConflict):
			fmt.Fprintln(w, "SKIPPED - already in catalog")
			res.skipped++
		case err != nil:
			fmt.Fprintf(w, "ERROR - %v\n", err)
			res.failed++
		default:
			fmt.Fprintf(w, "SUCCESS (ID: %d)\n", b.ID)
			res.imported++
		}
	}
	return res
}

func removeDatabase(w io.Writer, dbPath string) {
	fmt.Fprintln(w, "Cleaning up existing database files...")
	for _, file := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(w, "Warning: Could not remove %s: %v\n", file, err)
		}
	}
}

func newImportCmd() *cobra.Command {
	var (
		dbPath string
		reset  bool
	)
	cmd := &cobra.Command{
		Use:          "import_books <catalog.yaml>",
		Short:        "Seed the catalog from a YAML file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			entries, err := loadCatalog(f)
			if err != nil {
				return err
			}

			if reset {
				removeDatabase(w, dbPath)
			}
			manager, err := library.NewLibraryManager(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer manager.Close()

			res := importCatalog(cmd.Context(), w, manager.Catalog, entries)
			fmt.Fprintf(w, "\nImport complete!\n")
			fmt.Fprintf(w, "Successfully imported: %d books\n", res.imported)
			fmt.Fprintf(w, "Skipped: %d\n", res.skipped)
			fmt.Fprintf(w, "Errors: %d\n", res.failed)

			if res.imported > 0 {
				books, err := manager.Catalog.List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "\nCatalog:")
				fmt.Fprintf(w, "%-3s %-50s %-30s %s\n", "ID", "Title", "Author", "Copies")
				fmt.Fprintln(w, strings.Repeat("-", 92))
				for _, book := range books {
					fmt.Fprintf(w, "%-3d %-50s %-30s %d\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30), book.TotalCopies)
				}
			}
			if res.failed > 0 {
				return fmt.Errorf("%d book(s) failed to import", res.failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "library.db", "SQLite database path")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete the existing database first")
	return cmd
}

func main() {
	if err := newImportCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
