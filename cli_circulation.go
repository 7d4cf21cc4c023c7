package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

func printTransactions(a *app, cmd *cobra.Command, txs []*library.Transaction, empty string) error {
	return a.emit(cmd.OutOrStdout(), txs, func(w io.Writer) {
		if len(txs) == 0 {
			fmt.Fprintln(w, empty)
			return
		}
		for _, t := range txs {
			fmt.Fprintln(w, library.PrettyTransaction(t))
		}
	})
}

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <bookId> <memberId>",
		Short: "Lend a copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book ID", args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID("member ID", args[1])
			if err != nil {
				return err
			}
			if err := authenticate(a, cmd, memberID); err != nil {
				return err
			}

			tx, err := a.manager.Borrowing.Borrow(cmd.Context(), bookID, memberID)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), tx, func(w io.Writer) {
				fmt.Fprintf(w, "Transaction %d: book %d borrowed by member %d, due %s\n",
					tx.ID, tx.BookID, tx.MemberID, tx.DueDate.Format("2006-01-02"))
			})
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <transactionId>",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("transaction ID", args[0])
			if err != nil {
				return err
			}
			existing, err := a.manager.Borrowing.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := authenticate(a, cmd, existing.MemberID); err != nil {
				return err
			}

			tx, err := a.manager.Borrowing.Return(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), tx, func(w io.Writer) {
				fmt.Fprintf(w, "Transaction %d returned on %s\n", tx.ID, tx.ReturnDate.Format("2006-01-02"))
			})
		},
	}
}

func newBorrowingsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "borrowings [memberId]",
		Short: "Show a member's active borrowings, or every transaction with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				txs, err := a.manager.Borrowing.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return printTransactions(a, cmd, txs, "No transactions.")
			}
			if len(args) != 1 {
				return fmt.Errorf("member ID required unless --all is set")
			}
			id, err := parseID("member ID", args[0])
			if err != nil {
				return err
			}
			txs, err := a.manager.Borrowing.MemberBorrowings(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printTransactions(a, cmd, txs, "No active borrowings.")
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every transaction")
	return cmd
}

func newOverdueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "overdue", Short: "Inspect overdue borrowings"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List borrowings past their due date",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				txs, err := a.manager.ListOverdueNow(cmd.Context())
				if err != nil {
					return err
				}
				return printTransactions(a, cmd, txs, "Nothing is overdue.")
			},
		},
		&cobra.Command{
			Use:   "notify",
			Short: "Record an overdue notice for each overdue borrowing",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := a.manager.NotifyOverdueNow(cmd.Context())
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), map[string]int{"recorded": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Recorded %d overdue notice(s)\n", n)
				})
			},
		},
	)
	return cmd
}

func newNotificationsCmd(a *app) *cobra.Command {
	var unread, markRead bool
	cmd := &cobra.Command{
		Use:   "notifications <memberId>",
		Short: "Show a member's notifications, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member ID", args[0])
			if err != nil {
				return err
			}

			var notes []*library.Notification
			if unread {
				notes, err = a.manager.Notifications.ListUnread(cmd.Context(), id)
			} else {
				notes, err = a.manager.Notifications.ListForMember(cmd.Context(), id)
			}
			if err != nil {
				return err
			}

			if err := a.emit(cmd.OutOrStdout(), notes, func(w io.Writer) {
				if len(notes) == 0 {
					fmt.Fprintln(w, "No notifications.")
					return
				}
				for _, n := range notes {
					flag := " "
					if !n.Read {
						flag = "*"
					}
					fmt.Fprintf(w, "%s %-5d %s %-17s %s\n", flag, n.ID, n.SentAt.Format("2006-01-02 15:04"), n.Type, n.Message)
				}
			}); err != nil {
				return err
			}

			if markRead {
				for _, n := range notes {
					if n.Read {
						continue
					}
					if err := a.manager.Notifications.MarkRead(cmd.Context(), n.ID); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark the listed notifications as read")
	return cmd
}

func newFineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "fine", Short: "Record and list fines"}
	cmd.AddCommand(newFineRecordCmd(a), newFineListCmd(a))
	return cmd
}

func newFineRecordCmd(a *app) *cobra.Command {
	var (
		f             library.Fine
		transactionID int64
		status        string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a fine against a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transactionID > 0 {
				f.TransactionID = &transactionID
			}
			f.Status = library.FineStatus(strings.ToUpper(status))
			saved, err := a.manager.Fines.Record(cmd.Context(), &f)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), saved, func(w io.Writer) {
				fmt.Fprintf(w, "Recorded fine %d for member %d (%d cents, %s)\n", saved.ID, saved.MemberID, saved.AmountCents, saved.Status)
			})
		},
	}
	cmd.Flags().Int64Var(&f.MemberID, "member", 0, "member ID")
	cmd.Flags().Int64Var(&f.AmountCents, "amount-cents", 0, "amount in cents")
	cmd.Flags().Int64Var(&transactionID, "transaction", 0, "related transaction ID")
	cmd.Flags().StringVar(&f.Reason, "reason", "", "reason shown to the member")
	cmd.Flags().StringVar(&status, "status", "", "PENDING (default), PAID or WAIVED")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("amount-cents")
	return cmd
}

func newFineListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <memberId>",
		Short: "List a member's fines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("member ID", args[0])
			if err != nil {
				return err
			}
			fines, err := a.manager.Fines.ListForMember(cmd.Context(), id, library.FineStatus(strings.ToUpper(status)))
			if err != nil {
				return err
			}
			total, err := a.manager.Fines.PendingTotal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), fines, func(w io.Writer) {
				for _, f := range fines {
					fmt.Fprintf(w, "%-5d %8d %-8s %s %s\n", f.ID, f.AmountCents, f.Status, f.RecordedAt.Format("2006-01-02"), f.Reason)
				}
				fmt.Fprintf(w, "Pending total: %d cents\n", total)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by PENDING, PAID or WAIVED")
	return cmd
}
