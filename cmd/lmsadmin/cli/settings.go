package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Tier thresholds, point expiration and maintenance jobs",
}

// --- tiers ---

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Show monthly tier thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		thresholds, err := newClient().TierThresholds(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, thresholds, func(w io.Writer) {
			fmt.Fprintln(w, "TIER\tMIN AMOUNT\tMIN COUNT\tPRIORITY\tDESCRIPTION")
			for _, t := range thresholds {
				fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%s\n",
					t.TargetTier, t.MinMonthlyAmount, t.MinMonthlyTransactionCount, t.Priority, orDash(t.Description))
			}
		})
	},
}

var tierInput models.TierThreshold

var tierSetCmd = &cobra.Command{
	Use:   "set-tier <tier>",
	Short: "Create or replace the threshold of a tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := models.ParseTier(args[0])
		if err != nil {
			return err
		}
		t := tierInput
		t.TargetTier = tier
		if err := models.ValidateTierThreshold(&t); err != nil {
			return err
		}
		saved, err := newClient().SaveTierThreshold(cmd.Context(), t)
		audit(cmd, "config.tier", string(tier), t, err)
		if err != nil {
			return err
		}
		return render(cmd, saved, func(w io.Writer) {
			fmt.Fprintf(w, "Threshold for %s saved\n", saved.TargetTier)
		})
	},
}

// --- expiration ---

var expirationCmd = &cobra.Command{
	Use:   "expiration",
	Short: "Show the point expiration policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := newClient().ExpirationConfig(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, cfg, func(w io.Writer) { printExpiration(w, cfg) })
	},
}

func printExpiration(w io.Writer, c *models.ExpirationConfig) {
	fmt.Fprintf(w, "Type\t%s\n", c.ExpirationType)
	fmt.Fprintf(w, "Months\t%d\n", c.ExpirationMonths)
	fmt.Fprintf(w, "Active\t%s\n", onOff(c.IsActive))
	fmt.Fprintf(w, "Description\t%s\n", orDash(c.Description))
}

var expirationInput models.ExpirationConfig

var expirationSetCmd = &cobra.Command{
	Use:   "set-expiration",
	Short: "Replace the point expiration policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := expirationInput
		c.ExpirationType = models.ExpirationType(strings.ToUpper(string(c.ExpirationType)))
		if err := models.ValidateExpirationConfig(&c); err != nil {
			return err
		}
		saved, err := newClient().SaveExpirationConfig(cmd.Context(), c)
		audit(cmd, "config.expiration", string(c.ExpirationType), c, err)
		if err != nil {
			return err
		}
		return render(cmd, saved, func(w io.Writer) { printExpiration(w, saved) })
	},
}

// --- maintenance jobs ---

var runTierEvaluationCmd = &cobra.Command{
	Use:   "run-tier-evaluation",
	Short: "Re-evaluate every member's tier now",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient().RunTierEvaluation(cmd.Context())
		audit(cmd, "admin.tier-evaluation", "", nil, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

var expirePointsCmd = &cobra.Command{
	Use:   "expire-points",
	Short: "Expire points that are due now",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient().ExpirePoints(cmd.Context())
		audit(cmd, "admin.expire-points", "", nil, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

func init() {
	fs := tierSetCmd.Flags()
	fs.Float64Var(&tierInput.MinMonthlyAmount, "min-amount", 0, "Minimum monthly spend")
	fs.IntVar(&tierInput.MinMonthlyTransactionCount, "min-count", 0, "Minimum monthly transactions")
	fs.IntVar(&tierInput.Priority, "priority", 1, "Priority (lower wins)")
	fs.StringVar(&tierInput.Description, "description", "", "Description")

	fs = expirationSetCmd.Flags()
	fs.StringVar((*string)(&expirationInput.ExpirationType), "type", string(models.ExpirationRolling), "ROLLING or FIXED_DATE")
	fs.IntVar(&expirationInput.ExpirationMonths, "months", 12, "Months before points expire")
	fs.BoolVar(&expirationInput.IsActive, "active", true, "Whether expiration is enabled")
	fs.StringVar(&expirationInput.Description, "description", "", "Description")

	settingsCmd.AddCommand(tiersCmd, tierSetCmd, expirationCmd, expirationSetCmd, runTierEvaluationCmd, expirePointsCmd)
	rootCmd.AddCommand(settingsCmd)
}
