package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/members"
	"github.com/alexis/lmsadmin/internal/models"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage loyalty members",
}

// --- member list ---

var (
	memberPage   int
	memberSize   int
	memberSearch string
	memberTier   string
)

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members page by page",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := models.MemberQuery{Page: memberPage, Size: memberSize, Search: memberSearch}
		if memberTier != "" {
			t, err := models.ParseTier(memberTier)
			if err != nil {
				return err
			}
			q.Tier = t
		}
		page, err := newClient().ListMembers(cmd.Context(), q)
		if err != nil {
			return err
		}
		return render(cmd, page, func(w io.Writer) {
			printMembers(w, page.Content)
			fmt.Fprintf(w, "\npage %d/%d, %d members\n", page.Number+1, page.TotalPages, page.TotalElements)
		})
	},
}

func printMembers(w io.Writer, list []models.MemberLite) {
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tTIER\tPOINTS")
	for _, m := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", m.ID, m.Name, m.Email, orDash(m.Phone), m.Tier, m.TotalPoints)
	}
}

// --- member lite ---

var memberLiteLimit int

var memberLiteCmd = &cobra.Command{
	Use:   "lite [search]",
	Short: "Show the member pick-list, optionally filtered by name, email or phone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := members.New(newClient(), memberLiteLimit, slog.New(slog.NewTextHandler(io.Discard, nil)))
		defer dir.Close()
		if err := dir.Init(cmd.Context()); err != nil {
			return err
		}
		list := dir.Members()
		if len(args) == 1 {
			list = dir.Search(args[0])
		}
		return render(cmd, list, func(w io.Writer) { printMembers(w, list) })
	},
}

// --- member get ---

var memberGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		m, err := newClient().GetMember(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd, m, func(w io.Writer) {
			fmt.Fprintf(w, "ID\t%d\n", m.ID)
			fmt.Fprintf(w, "Name\t%s\n", m.Name)
			fmt.Fprintf(w, "Email\t%s\n", m.Email)
			fmt.Fprintf(w, "Phone\t%s\n", orDash(m.Phone))
			fmt.Fprintf(w, "Tier\t%s\n", m.Tier)
			fmt.Fprintf(w, "Points\t%d\n", m.TotalPoints)
			fmt.Fprintf(w, "Lifetime points\t%d\n", m.LifetimePoints)
		})
	},
}

// --- member create / update ---

var memberInput models.Member

func registerMemberFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&memberInput.Name, "name", "", "Full name")
	fs.StringVar(&memberInput.Email, "email", "", "Email address")
	fs.StringVar(&memberInput.Phone, "phone", "", "Phone number")
	fs.StringVar((*string)(&memberInput.Role), "role", "", "CUSTOMER or ADMIN")
}

var memberCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a member",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := memberInput
		if err := models.ValidateMember(&m); err != nil {
			return err
		}
		created, err := newClient().CreateMember(cmd.Context(), m)
		audit(cmd, "member.create", m.Email, m, err)
		if err != nil {
			return err
		}
		return render(cmd, created, func(w io.Writer) {
			fmt.Fprintf(w, "Member %s created (id %d)\n", created.Email, created.ID)
		})
	},
}

var memberUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		m := memberInput
		if err := models.ValidateMember(&m); err != nil {
			return err
		}
		updated, err := newClient().UpdateMember(cmd.Context(), id, m)
		audit(cmd, "member.update", args[0], m, err)
		if err != nil {
			return err
		}
		return render(cmd, updated, func(w io.Writer) {
			fmt.Fprintf(w, "Member %d updated\n", updated.ID)
		})
	},
}

// --- member delete / reset ---

var memberDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		err = newClient().DeleteMember(cmd.Context(), id)
		audit(cmd, "member.delete", args[0], nil, err)
		if err != nil {
			return err
		}
		return message(cmd, fmt.Sprintf("Member %d deleted", id))
	},
}

var memberResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Clear a member's points and transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		err = newClient().ResetMember(cmd.Context(), id)
		audit(cmd, "member.reset", args[0], nil, err)
		if err != nil {
			return err
		}
		return message(cmd, fmt.Sprintf("Member %d reset", id))
	},
}

// --- member points / stats ---

var memberPointsCmd = &cobra.Command{
	Use:   "points <id>",
	Short: "Show a member's point balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		points, err := newClient().MemberPoints(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd, map[string]interface{}{"memberId": id, "points": points}, func(w io.Writer) {
			fmt.Fprintln(w, strconv.Itoa(points))
		})
	},
}

var memberStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show member counts per tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().MemberStats(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, stats, func(w io.Writer) { printStats(w, stats) })
	},
}

func printStats(w io.Writer, s *models.DashboardStats) {
	fmt.Fprintf(w, "Members\t%d\n", s.TotalMembers)
	fmt.Fprintf(w, "Points issued\t%d\n", s.TotalPoints)
	counts := []struct {
		tier models.Tier
		n    int64
	}{
		{models.TierDiamond, s.DiamondCount},
		{models.TierPlatinum, s.PlatinumCount},
		{models.TierGold, s.GoldCount},
		{models.TierSilver, s.SilverCount},
		{models.TierBronze, s.BronzeCount},
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.tier, c.n)
	}
}

func init() {
	fs := memberListCmd.Flags()
	fs.IntVar(&memberPage, "page", 0, "Page number (0-based)")
	fs.IntVar(&memberSize, "size", 20, "Page size")
	fs.StringVar(&memberSearch, "search", "", "Name or email filter")
	fs.StringVar(&memberTier, "tier", "", "Tier filter")

	memberLiteCmd.Flags().IntVar(&memberLiteLimit, "limit", 100, "Maximum members to load")

	registerMemberFlags(memberCreateCmd)
	registerMemberFlags(memberUpdateCmd)

	memberCmd.AddCommand(memberListCmd, memberLiteCmd, memberGetCmd, memberCreateCmd, memberUpdateCmd,
		memberDeleteCmd, memberResetCmd, memberPointsCmd, memberStatsCmd)
	rootCmd.AddCommand(memberCmd)
}
