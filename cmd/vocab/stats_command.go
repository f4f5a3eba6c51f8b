package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/smith3v/vocab-srs/pkg/analytics"
	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var rangeFlag string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show today's progress and the statistics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := analytics.ParseRange(rangeFlag)
			if err != nil {
				return err
			}
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			overview, err := newBuilder(ctx, repo).Overview(cmd.Context())
			if err != nil {
				return err
			}
			dashboard, err := analytics.NewAggregator(repo, ctx.location()).Dashboard(cmd.Context(), r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today: %d/%d reviewed, %d due, %d new, %d total\n",
				overview.ReviewedToday, overview.DailyGoal, overview.Due, overview.New, overview.Total)
			if overview.Due == 0 && !overview.NextDueAt.IsZero() {
				fmt.Fprintf(out, "Next review: %s\n", formatDue(overview.NextDueAt, time.Now()))
			}
			fmt.Fprintf(out, "Range: %s\n", dashboard.Range)
			fmt.Fprintf(out, "Accuracy: %d%%\n", dashboard.Accuracy)
			fmt.Fprintf(out, "Streak: %d days (longest %d)\n", dashboard.CurrentStreak, dashboard.LongestStreak)
			fmt.Fprintf(out, "Cards: %d total, %d reviewed, %d mastered\n\n",
				dashboard.TotalCards, dashboard.ReviewedCards, dashboard.MasteredCards)

			chart := make([][]string, 0, len(dashboard.Chart))
			for _, b := range dashboard.Chart {
				chart = append(chart, []string{b.Label, strconv.Itoa(b.Learned), strconv.Itoa(b.Reviewed)})
			}
			writeTable(out, []string{"Period", "Learned", "Reviewed"}, chart,
				[]columnAlignment{alignLeft, alignRight, alignRight})

			if len(dashboard.Levels) > 0 {
				fmt.Fprintln(out)
				levels := make([][]string, 0, len(dashboard.Levels))
				for _, l := range dashboard.Levels {
					levels = append(levels, []string{string(l.Level), strconv.Itoa(l.Mastered), strconv.Itoa(l.Total), strconv.Itoa(l.Percent) + "%"})
				}
				writeTable(out, []string{"Level", "Mastered", "Total", "Progress"}, levels,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", string(analytics.Range7Days), "Range: 7days, 30days or all")
	return cmd
}
