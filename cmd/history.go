package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/example/classpick/internal/attempts"
	"github.com/example/classpick/internal/db"
	"github.com/example/classpick/internal/outcomes"
	"github.com/example/classpick/internal/registration"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		runID   string
		classID string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded registration attempts (requires CLASSPICK_DATABASE_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("CLASSPICK_DATABASE_URL is required")
			}

			ctx := cmd.Context()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			list, err := attempts.NewRepo(d).List(ctx, attempts.Filter{
				RunID:   runID,
				ClassID: registration.Target(classID),
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no attempts recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("WHEN", "CLASS", "OUTCOME", "CAPACITY", "REGISTERED", "MESSAGE", "RUN")
			for _, a := range list {
				t.Row(
					outcomes.Timestamp(a.AttemptedAt.Local()),
					a.ClassID,
					a.Kind,
					count(a.Capacity),
					count(a.Registered),
					a.Message,
					a.RunID,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "only show attempts of this run")
	cmd.Flags().StringVar(&classID, "class", "", "only show attempts for this class id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func count(n *int) string {
	if n == nil {
		return "n/a"
	}
	return strconv.Itoa(*n)
}
