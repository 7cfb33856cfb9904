package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexis/lmsadmin/internal/models"
)

type overviewResult struct {
	Stats       *models.DashboardStats  `json:"stats"`
	RulesByType map[models.RuleType]int `json:"rulesByType"`
	Products    int                     `json:"products"`
	Pending     []models.Transaction    `json:"pending"`
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Dashboard summary: members, rules, products and pending transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		var (
			out      overviewResult
			rules    []models.Rule
			products []models.Product
			txs      []models.Transaction
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() (err error) {
			out.Stats, err = c.MemberStats(ctx)
			return err
		})
		g.Go(func() (err error) {
			rules, err = c.ListRules(ctx)
			return err
		})
		g.Go(func() (err error) {
			products, err = c.ListProducts(ctx)
			return err
		})
		g.Go(func() (err error) {
			txs, err = c.ListTransactions(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		out.RulesByType = models.CountRulesByType(rules)
		out.Products = len(products)
		out.Pending = []models.Transaction{}
		for _, t := range txs {
			if t.Status == models.StatusPending {
				out.Pending = append(out.Pending, t)
			}
		}

		return render(cmd, out, func(w io.Writer) {
			printStats(w, out.Stats)
			for _, t := range models.RuleTypes {
				fmt.Fprintf(w, "%s rules\t%d\n", t, out.RulesByType[t])
			}
			fmt.Fprintf(w, "Products\t%d\n", out.Products)
			fmt.Fprintf(w, "Pending transactions\t%d\n", len(out.Pending))
		})
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}
