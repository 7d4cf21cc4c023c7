package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage the catalog"}
	cmd.AddCommand(newBookAddCmd(a), newBookListCmd(a), newBookSearchCmd(a), newBookAvailableCmd(a), newBookDeleteCmd(a))
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var b library.Book
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			saved, err := a.manager.Catalog.Save(cmd.Context(), &b)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), saved, func(w io.Writer) {
				fmt.Fprintf(w, "Added book ID %d: %s by %s (%d copies)\n", saved.ID, saved.Title, saved.Author, saved.TotalCopies)
			})
		},
	}
	cmd.Flags().StringVar(&b.Title, "title", "", "book title")
	cmd.Flags().StringVar(&b.Author, "author", "", "book author")
	cmd.Flags().StringVar(&b.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&b.ISBN, "isbn", "", "ISBN")
	cmd.Flags().IntVar(&b.YearPublished, "year", 0, "year published")
	cmd.Flags().IntVar(&b.AvailableCopies, "copies", 1, "copies on the shelf")
	cmd.Flags().IntVar(&b.TotalCopies, "total", 0, "copies owned (defaults to --copies)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func printBooks(a *app, cmd *cobra.Command, books []*library.Book) error {
	return a.emit(cmd.OutOrStdout(), books, func(w io.Writer) {
		if len(books) == 0 {
			fmt.Fprintln(w, "No books found.")
			return
		}
		fmt.Fprintf(w, "%-5s %-30s %-25s %-15s %s\n", "ID", "Title", "Author", "Genre", "Avail/Total")
		for _, b := range books {
			fmt.Fprintln(w, library.PrettyBook(b))
		}
	})
}

func newBookListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.manager.Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			return printBooks(a, cmd, books)
		},
	}
}

func newBookSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search title, author and genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.manager.Catalog.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printBooks(a, cmd, books)
		},
	}
}

func newBookAvailableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List books with a copy on the shelf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.manager.Catalog.ListAvailable(cmd.Context())
			if err != nil {
				return err
			}
			return printBooks(a, cmd, books)
		},
	}
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bookId>",
		Short: "Remove a book with no borrowing history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book ID", args[0])
			if err != nil {
				return err
			}
			if err := a.manager.Catalog.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted book %d\n", id)
			return nil
		},
	}
}
