package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/members"
	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/watch"
)

var transactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"tx"},
	Short:   "Submit and follow transactions",
}

// --- transaction list ---

var txListMember int64

var transactionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transactions, or one member's (--member)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		var (
			txs []models.Transaction
			err error
		)
		if txListMember > 0 {
			txs, err = c.MemberTransactions(cmd.Context(), txListMember)
		} else {
			txs, err = c.ListTransactions(cmd.Context())
		}
		if err != nil {
			return err
		}
		var dir *members.Directory
		if output == outputTable && len(txs) > 0 {
			dir = loadDirectory(cmd.Context(), c)
			defer dir.Close()
		}
		return render(cmd, txs, func(w io.Writer) { printTransactions(w, txs, dir) })
	},
}

// loadDirectory fetches the member pick-list for display. A failed load
// leaves the directory empty.
func loadDirectory(ctx context.Context, src members.Source) *members.Directory {
	dir := members.New(src, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_ = dir.Init(ctx)
	return dir
}

// printTransactions lists txs, naming members found in dir. dir may be nil.
func printTransactions(w io.Writer, txs []models.Transaction, dir *members.Directory) {
	fmt.Fprintln(w, "ID\tMEMBER\tAMOUNT\tPAYMENT\tCATEGORY\tPOINTS\tSTATUS\tDATE")
	for _, t := range txs {
		date := "-"
		if t.TransactionDate != nil {
			date = t.TransactionDate.Format("2006-01-02 15:04")
		}
		member := strconv.FormatInt(t.MemberID, 10)
		if dir != nil {
			if m, ok := dir.Lookup(t.MemberID); ok {
				member = fmt.Sprintf("%s (%d)", m.Name, m.ID)
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\t%d\t%s\t%s\n",
			t.ID, member, t.Amount, t.PaymentMethod, orDash(t.ProductCategory), t.PointsEarned, t.Status, date)
	}
}

// --- transaction create ---

var (
	txMember   string
	txReceiver int64
	txInput    models.Transaction
	txWait     bool
)

var transactionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a purchase; --member takes an id or a name, email or phone to look up",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		t := txInput
		id, err := resolveMember(cmd.Context(), c, txMember)
		if err != nil {
			return err
		}
		t.MemberID = id
		if txReceiver > 0 {
			t.ReceiverID = &txReceiver
		}
		if err := models.ValidateTransaction(&t); err != nil {
			return err
		}

		created, err := c.CreateTransaction(cmd.Context(), t)
		audit(cmd, "transaction.create", fmt.Sprint(t.MemberID), t, err)
		if err != nil {
			return err
		}
		if err := render(cmd, created, func(w io.Writer) {
			fmt.Fprintf(w, "Transaction %d submitted (%s)\n", created.ID, created.Status)
		}); err != nil {
			return err
		}
		if txWait && created.Status == models.StatusPending {
			return followPending(cmd, c, true)
		}
		return nil
	},
}

// resolveMember accepts a numeric id or a search term that must match
// exactly one member of the pick-list.
func resolveMember(ctx context.Context, src members.Source, ref string) (int64, error) {
	if ref == "" {
		return 0, errors.New("--member is required")
	}
	if id, err := parseID(ref); err == nil {
		return id, nil
	}
	dir := members.New(src, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer dir.Close()
	if err := dir.Init(ctx); err != nil {
		return 0, err
	}
	found := dir.Search(ref)
	switch len(found) {
	case 0:
		return 0, fmt.Errorf("no member matches %q", ref)
	case 1:
		return found[0].ID, nil
	default:
		return 0, fmt.Errorf("%d members match %q; use the id", len(found), ref)
	}
}

// --- transaction summary ---

var txPeriod string

var transactionSummaryCmd = &cobra.Command{
	Use:   "summary <memberId>",
	Short: "Total a member's spending over a period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := models.ValidatePeriod(txPeriod); err != nil {
			return err
		}
		s, err := newClient().TransactionSummary(cmd.Context(), id, txPeriod)
		if err != nil {
			return err
		}
		return render(cmd, s, func(w io.Writer) {
			fmt.Fprintf(w, "Member\t%d\n", s.MemberID)
			fmt.Fprintf(w, "Transactions\t%d\n", s.TransactionCount)
			fmt.Fprintf(w, "Total\t%.2f\n", s.TotalAmount)
		})
	},
}

// --- transaction watch ---

var (
	watchInterval time.Duration
	watchMax      time.Duration
	watchUntil    bool
)

var transactionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print transaction status changes as the rule engine settles them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return followPending(cmd, newClient(), watchUntil)
	},
}

// followPending runs a watcher and prints every status change. With
// untilSettled it returns once nothing is pending.
func followPending(cmd *cobra.Command, src watch.Source, untilSettled bool) error {
	if watchInterval <= 0 {
		return errors.New("--interval must be positive")
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	w := watch.New(src, watchInterval, watchMax, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
	out := cmd.OutOrStdout()
	w.OnUpdate(func(u watch.Update) {
		from := string(u.Previous)
		if from == "" {
			from = "new"
		}
		fmt.Fprintf(out, "%s  transaction %d (member %d): %s -> %s, %d points\n",
			time.Now().Format("15:04:05"), u.Transaction.ID, u.Transaction.MemberID, from, u.Transaction.Status, u.Transaction.PointsEarned)
		if untilSettled && !models.HasPending(w.Transactions()) {
			cancel()
		}
	})

	if untilSettled {
		// Stop straight away when the first poll finds nothing to follow.
		go func() {
			ticker := time.NewTicker(watchInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if w.Polled() && !models.HasPending(w.Transactions()) {
						cancel()
						return
					}
				}
			}
		}()
	}

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func init() {
	transactionListCmd.Flags().Int64Var(&txListMember, "member", 0, "Only this member's transactions")

	fs := transactionCreateCmd.Flags()
	fs.StringVar(&txMember, "member", "", "Member id, or a name, email or phone to look up")
	fs.Float64Var(&txInput.Amount, "amount", 0, "Amount")
	fs.StringVar(&txInput.PaymentMethod, "payment", "CARD", "Payment method")
	fs.StringVar(&txInput.ProductCategory, "category", "", "Product category")
	fs.Int64Var(&txReceiver, "receiver", 0, "Receiving member for transfers")
	fs.BoolVar(&txWait, "wait", false, "Follow the transaction until it is settled")

	transactionSummaryCmd.Flags().StringVar(&txPeriod, "period", "MONTHLY", "MONTHLY, QUARTERLY, YEARLY or YYYY-MM")

	for _, c := range []*cobra.Command{transactionCreateCmd, transactionWatchCmd} {
		c.Flags().DurationVar(&watchInterval, "interval", 3*time.Second, "Initial poll interval")
		c.Flags().DurationVar(&watchMax, "max-interval", 30*time.Second, "Longest poll interval")
	}
	transactionWatchCmd.Flags().BoolVar(&watchUntil, "until-settled", false, "Exit once nothing is pending")

	transactionCmd.AddCommand(transactionListCmd, transactionCreateCmd, transactionSummaryCmd, transactionWatchCmd)
	rootCmd.AddCommand(transactionCmd)
}
