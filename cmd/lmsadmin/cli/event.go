package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/models"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Trigger loyalty events",
}

var eventOnboardCmd = &cobra.Command{
	Use:   "onboard <memberId>",
	Short: "Award the onboarding bonus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		msg, err := newClient().Onboard(cmd.Context(), id)
		audit(cmd, "event.onboard", args[0], models.OnboardRequest{MemberID: id}, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

var eventReferralCmd = &cobra.Command{
	Use:   "referral <referrerId> <refereeId>",
	Short: "Award a referral bonus",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		referrer, err := parseID(args[0])
		if err != nil {
			return err
		}
		referee, err := parseID(args[1])
		if err != nil {
			return err
		}
		req := models.ReferralRequest{ReferrerID: referrer, RefereeID: referee}
		if err := models.ValidateReferral(&req); err != nil {
			return err
		}
		msg, err := newClient().Referral(cmd.Context(), req)
		audit(cmd, "event.referral", args[0], req, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

var eventAttrs []string

var eventTriggerCmd = &cobra.Command{
	Use:     "trigger <eventType>",
	Short:   "Send a custom event",
	Example: "  lmsadmin event trigger BIRTHDAY --attr memberId=7 --attr channel=app",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := parseAttrs(eventAttrs)
		if err != nil {
			return err
		}
		e["eventType"] = args[0]
		if err := models.ValidateEventTrigger(e); err != nil {
			return err
		}
		msg, err := newClient().TriggerEvent(cmd.Context(), e)
		audit(cmd, "event.trigger", args[0], e, err)
		if err != nil {
			return err
		}
		return message(cmd, msg)
	},
}

// parseAttrs turns key=value pairs into event attributes. Integer values
// are sent as numbers.
func parseAttrs(pairs []string) (models.EventTrigger, error) {
	e := models.EventTrigger{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q: want key=value", p)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			e[k] = n
			continue
		}
		e[k] = v
	}
	return e, nil
}

func init() {
	eventTriggerCmd.Flags().StringArrayVar(&eventAttrs, "attr", nil, "Event attribute key=value (repeatable)")
	eventCmd.AddCommand(eventOnboardCmd, eventReferralCmd, eventTriggerCmd)
	rootCmd.AddCommand(eventCmd)
}
