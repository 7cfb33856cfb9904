package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/ruleform"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage loyalty rules",
}

// --- rule list ---

var ruleListType string

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules, optionally one tab (--type)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := newClient().ListRules(cmd.Context())
		if err != nil {
			return err
		}
		if ruleListType != "" {
			t, err := models.ParseRuleType(ruleListType)
			if err != nil {
				return err
			}
			rules = models.FilterRules(rules, t)
		}

		return render(cmd, rules, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tTYPE\tNAME\tPRIORITY\tACTIVE\tSUMMARY")
			for _, r := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					r.ID, orDash(string(r.RuleType)), r.RuleName, r.Priority, onOff(r.IsActive), ruleform.Summarize(r))
			}
		})
	},
}

// --- rule get ---

var ruleGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rule, err := newClient().GetRule(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd, rule, func(w io.Writer) {
			fmt.Fprintf(w, "ID\t%d\n", rule.ID)
			fmt.Fprintf(w, "Name\t%s\n", rule.RuleName)
			fmt.Fprintf(w, "Type\t%s\n", orDash(string(rule.RuleType)))
			fmt.Fprintf(w, "Priority\t%d\n", rule.Priority)
			fmt.Fprintf(w, "Active\t%s\n", onOff(rule.IsActive))
			fmt.Fprintf(w, "Summary\t%s\n", ruleform.Summarize(*rule))
			fmt.Fprintf(w, "Conditions\t%s\n", orDash(string(rule.Conditions)))
			fmt.Fprintf(w, "Actions\t%s\n", orDash(string(rule.Actions)))
		})
	},
}

// --- rule create / edit ---

// ruleFlags are shared by create and edit. Only flags given on the command
// line are applied to the draft.
type ruleFlags struct {
	ruleType       string
	name           string
	priority       int
	active         bool
	tier           string
	evaluationType string
	rewardType     string
	validUntil     string
	conditions     string
	actions        string
	ranges         []string
	awardPoints    int
	products       []string
	allProducts    bool
	strict         bool
	dryRun         bool
}

var (
	createFlags ruleFlags
	editFlags   ruleFlags
)

func (rf *ruleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&rf.name, "name", "", "Rule name")
	fs.IntVar(&rf.priority, "priority", 1, "Priority (lower runs first)")
	fs.BoolVar(&rf.active, "active", true, "Whether the rule is active")
	fs.StringVar(&rf.tier, "tier", "", "Target tier (BRONZE..DIAMOND)")
	fs.StringVar(&rf.evaluationType, "evaluation-type", "", "TRANSACTION, MONTHLY or QUARTERLY")
	fs.StringVar(&rf.rewardType, "reward-type", "", "POINTS or DISCOUNT")
	fs.StringVar(&rf.validUntil, "valid-until", "", "Last valid day (YYYY-MM-DD), empty to clear")
	fs.StringVar(&rf.conditions, "conditions", "", "Conditions as JSON")
	fs.StringVar(&rf.actions, "actions", "", "Actions as JSON")
	fs.StringArrayVar(&rf.ranges, "range", nil, "Tiered range min:max:points[:multiplier]; empty max is open-ended (repeatable)")
	fs.IntVar(&rf.awardPoints, "award-points", 0, "Points awarded by an EVENT rule")
	fs.StringArrayVar(&rf.products, "product", nil, "Toggle a target product code (repeatable)")
	fs.BoolVar(&rf.allProducts, "all-products", false, "Add every catalog product to the targets")
	fs.BoolVar(&rf.strict, "strict", false, "Reject malformed conditions or actions")
}

// apply copies the given flags onto f.
func (rf *ruleFlags) apply(cmd *cobra.Command, f *ruleform.Form) error {
	changed := cmd.Flags().Changed
	fields := []struct {
		flag, field, value string
	}{
		{"name", ruleform.FieldRuleName, rf.name},
		{"priority", ruleform.FieldPriority, strconv.Itoa(rf.priority)},
		{"active", ruleform.FieldIsActive, strconv.FormatBool(rf.active)},
		{"tier", ruleform.FieldTargetTier, rf.tier},
		{"evaluation-type", ruleform.FieldEvaluationType, strings.ToUpper(rf.evaluationType)},
		{"reward-type", ruleform.FieldRewardType, strings.ToUpper(rf.rewardType)},
		{"valid-until", ruleform.FieldValidUntil, rf.validUntil},
		{"conditions", ruleform.FieldConditions, rf.conditions},
		{"actions", ruleform.FieldActions, rf.actions},
	}
	for _, fl := range fields {
		if !changed(fl.flag) {
			continue
		}
		if err := f.SetField(fl.field, fl.value); err != nil {
			return err
		}
	}

	if len(rf.ranges) > 0 && f.RuleType() != models.RuleTypeTransaction {
		return fmt.Errorf("--range applies to TRANSACTION rules only")
	}
	for _, s := range rf.ranges {
		rng, err := parseRange(s)
		if err != nil {
			return err
		}
		f.AddTieredRange()
		i := len(f.TieredRanges()) - 1
		f.UpdateTieredRange(i, ruleform.RangeMin, rng.Min)
		if rng.Max != nil {
			f.UpdateTieredRange(i, ruleform.RangeMax, *rng.Max)
		}
		f.UpdateTieredRange(i, ruleform.RangePoints, float64(rng.Points))
		f.UpdateTieredRange(i, ruleform.RangeMultiplier, rng.Multiplier)
	}

	if changed("award-points") {
		if f.RuleType() != models.RuleTypeEvent {
			return fmt.Errorf("--award-points applies to EVENT rules only")
		}
		f.SetAwardPoints(rf.awardPoints)
	}

	if (len(rf.products) > 0 || rf.allProducts) && f.RuleType() != models.RuleTypeProduct {
		return fmt.Errorf("--product and --all-products apply to PRODUCT rules only")
	}
	if rf.allProducts {
		products, err := newClient().ListProducts(cmd.Context())
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		for _, code := range models.ProductCodes(products) {
			if !f.TargetsProduct(code) {
				f.ToggleProductTarget(code)
			}
		}
	}
	for _, code := range rf.products {
		f.ToggleProductTarget(code)
	}
	return nil
}

func (rf *ruleFlags) payload(f *ruleform.Form) (models.Rule, error) {
	if rf.strict {
		return f.BuildStrictPayload()
	}
	p := f.BuildSubmitPayload()
	return p, models.ValidateRule(&p)
}

// parseRange reads "min:max:points[:multiplier]". An empty, zero or "inf"
// max leaves the range open-ended.
func parseRange(s string) (ruleform.Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return ruleform.Range{}, fmt.Errorf("invalid range %q: want min:max:points[:multiplier]", s)
	}
	num := func(v string) (float64, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a finite number", v)
		}
		return f, nil
	}

	var r ruleform.Range
	var err error
	if r.Min, err = num(parts[0]); err != nil {
		return r, fmt.Errorf("invalid range %q: min: %w", s, err)
	}
	var maxV float64
	if !strings.EqualFold(strings.TrimSpace(parts[1]), "inf") {
		maxV, err = num(parts[1])
	}
	if err != nil {
		return r, fmt.Errorf("invalid range %q: max: %w", s, err)
	}
	if maxV != 0 {
		r.Max = &maxV
	}
	points, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return r, fmt.Errorf("invalid range %q: points: %w", s, err)
	}
	r.Points = points
	if len(parts) == 4 {
		if r.Multiplier, err = num(parts[3]); err != nil {
			return r, fmt.Errorf("invalid range %q: multiplier: %w", s, err)
		}
	}
	return r, nil
}

var ruleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a rule",
	Example: `  lmsadmin rule create --type EVENT --name "Welcome Bonus" --award-points 500
  lmsadmin rule create --type TRANSACTION --name Spend --range 0:100:10 --range 101::60:1.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := models.ParseRuleType(createFlags.ruleType)
		if err != nil {
			return err
		}
		f := ruleform.New(t)
		if err := createFlags.apply(cmd, f); err != nil {
			return err
		}
		p, err := createFlags.payload(f)
		if err != nil {
			return err
		}
		if createFlags.dryRun {
			return render(cmd, p, func(w io.Writer) { printPayload(w, p) })
		}

		created, err := newClient().CreateRule(cmd.Context(), p)
		audit(cmd, "rule.create", p.RuleName, p, err)
		if err != nil {
			return err
		}
		return render(cmd, created, func(w io.Writer) {
			fmt.Fprintf(w, "Rule %q created (id %d)\n", created.RuleName, created.ID)
		})
	},
}

var ruleEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a rule; --dry-run shows the change without saving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c := newClient()
		stored, err := c.GetRule(cmd.Context(), id)
		if err != nil {
			return err
		}

		f := &ruleform.Form{}
		f.StartEdit(*stored)
		if err := editFlags.apply(cmd, f); err != nil {
			return err
		}
		p, err := editFlags.payload(f)
		if err != nil {
			return err
		}

		if editFlags.dryRun {
			diff, err := f.Diff(*stored)
			if err != nil {
				return err
			}
			if diff == "" {
				diff = "no changes\n"
			}
			fmt.Fprint(cmd.OutOrStdout(), diff)
			return nil
		}

		updated, err := c.UpdateRule(cmd.Context(), id, p)
		audit(cmd, "rule.update", strconv.FormatInt(id, 10), p, err)
		if err != nil {
			return err
		}
		return render(cmd, updated, func(w io.Writer) {
			fmt.Fprintf(w, "Rule %q updated\n", updated.RuleName)
		})
	},
}

func printPayload(w io.Writer, p models.Rule) {
	fmt.Fprintf(w, "Name\t%s\n", p.RuleName)
	fmt.Fprintf(w, "Type\t%s\n", p.RuleType)
	fmt.Fprintf(w, "Summary\t%s\n", ruleform.Summarize(p))
	fmt.Fprintf(w, "Conditions\t%s\n", orDash(string(p.Conditions)))
	fmt.Fprintf(w, "Actions\t%s\n", orDash(string(p.Actions)))
}

// --- rule delete ---

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		err = newClient().DeleteRule(cmd.Context(), id)
		audit(cmd, "rule.delete", args[0], nil, err)
		if err != nil {
			return err
		}
		return message(cmd, fmt.Sprintf("Rule %d deleted", id))
	},
}

// --- rule reload ---

var ruleReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Make the rule engine reload its rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient().ReloadRules(cmd.Context())
		audit(cmd, "rule.reload", "", nil, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

// --- rule evaluate ---

var evalFact models.TransactionFact

var ruleEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Simulate a transaction against the active rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		if evalFact.Amount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}
		fact := evalFact
		if fact.MemberTier != "" {
			t, err := models.ParseTier(string(fact.MemberTier))
			if err != nil {
				return err
			}
			fact.MemberTier = t
		}
		out, err := newClient().EvaluateRules(cmd.Context(), models.RuleEvaluationRequest{Transaction: fact})
		if err != nil {
			return err
		}
		return render(cmd, out, func(w io.Writer) {
			fmt.Fprintf(w, "Amount\t%.2f\n", out.Amount)
			fmt.Fprintf(w, "Multiplier\t%gx\n", out.PointMultiplier)
			fmt.Fprintf(w, "Bonus points\t%d\n", out.BonusPoints)
		})
	},
}

func init() {
	ruleListCmd.Flags().StringVar(&ruleListType, "type", "", "Only this rule type (EVENT, TRANSACTION, PRODUCT, REWARD)")

	createFlags.register(ruleCreateCmd)
	ruleCreateCmd.Flags().StringVar(&createFlags.ruleType, "type", "", "Rule type (EVENT, TRANSACTION, PRODUCT, REWARD)")
	ruleCreateCmd.Flags().BoolVar(&createFlags.dryRun, "dry-run", false, "Print the payload without creating the rule")
	_ = ruleCreateCmd.MarkFlagRequired("type")

	editFlags.register(ruleEditCmd)
	ruleEditCmd.Flags().BoolVar(&editFlags.dryRun, "dry-run", false, "Print a diff against the stored rule without saving")

	fs := ruleEvaluateCmd.Flags()
	fs.Int64Var(&evalFact.MemberID, "member", 0, "Member id")
	fs.Float64Var(&evalFact.Amount, "amount", 0, "Transaction amount")
	fs.StringVar((*string)(&evalFact.MemberTier), "tier", "", "Member tier")
	fs.StringVar(&evalFact.PaymentMethod, "payment", "", "Payment method")
	fs.StringVar(&evalFact.ProductCategory, "category", "", "Product category")
	fs.StringVar(&evalFact.ProductCode, "product", "", "Product code")

	ruleCmd.AddCommand(ruleListCmd, ruleGetCmd, ruleCreateCmd, ruleEditCmd, ruleDeleteCmd, ruleReloadCmd, ruleEvaluateCmd)
	rootCmd.AddCommand(ruleCmd)
}
