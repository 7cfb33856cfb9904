package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/migrations"
)

var (
	activityLimit int
	activityKind  string
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "List recorded admin actions from the --audit database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditDB == "" {
			return errors.New("--audit is required to read the activity log")
		}
		db, err := store.NewSQLiteStore(auditDB, migrations.FS)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListActivity(cmd.Context(), models.ActivityQuery{Limit: activityLimit, Kind: activityKind})
		if err != nil {
			return err
		}
		return render(cmd, entries, func(w io.Writer) {
			fmt.Fprintln(w, "TIME\tKIND\tSUBJECT\tOUTCOME\tACTOR\tERROR")
			for _, a := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Kind, orDash(a.Subject), a.Outcome, orDash(a.Actor), orDash(a.Error))
			}
		})
	},
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", models.DefaultActivityLimit, "Maximum entries")
	activityCmd.Flags().StringVar(&activityKind, "kind", "", "Only this kind, e.g. rule.create")
	rootCmd.AddCommand(activityCmd)
}
