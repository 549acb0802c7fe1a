package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"runnerdb/internal/runnerdb"
)

func newRunnersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runners",
		Short: "Inspect and edit runner records",
	}
	cmd.AddCommand(newRunnersListCommand(ctx))
	cmd.AddCommand(newRunnersSearchCommand(ctx))
	cmd.AddCommand(newRunnersShowCommand(ctx))
	cmd.AddCommand(newRunnersDeleteCommand(ctx))
	cmd.AddCommand(newRunnersQualityCommand(ctx))
	cmd.AddCommand(newRunnersStatsCommand(ctx))
	cmd.AddCommand(newRunnersUseCommand(ctx))
	return cmd
}

func newRunnersListCommand(ctx *commandContext) *cobra.Command {
	var club string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runners, optionally filtered by club name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				var runners []*runnerdb.Runner
				if strings.TrimSpace(club) != "" {
					runners = a.store.RunnersByClub(club)
				} else {
					runners = a.store.Runners()
				}
				return emit(cmd, ctx, runners, func() string { return renderRunners(runners) })
			})
		},
	}
	cmd.Flags().StringVar(&club, "club", "", "Only list runners whose club display name matches exactly")
	return cmd
}

func newRunnersSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Case-insensitive name search, most-used runners first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				runners := a.store.SearchRunners(strings.Join(args, " "), limit)
				return emit(cmd, ctx, runners, func() string { return renderRunners(runners) })
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results (0 for no limit)")
	return cmd
}

func newRunnersShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one runner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				r, ok := a.store.Runner(args[0])
				if !ok {
					return fmt.Errorf("%w: runner %s", runnerdb.ErrNotFound, args[0])
				}
				return emit(cmd, ctx, r, func() string { return renderRunnerDetail(r, a.resolver.Hint(r.Club)) })
			})
		},
	}
}

func newRunnersDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a runner (suppressed pairs are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				if err := a.store.DeleteRunner(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted runner %s\n", args[0])
				return nil
			})
		},
	}
}

func newRunnersQualityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quality",
		Short: "List runners missing a birth year or sex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				runners := a.store.DataQualityIssues()
				return emit(cmd, ctx, runners, func() string {
					if len(runners) == 0 {
						return "No runners need completion"
					}
					return renderRunners(runners)
				})
			})
		},
	}
}

func newRunnersStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				stats := a.store.Stats()
				return emit(cmd, ctx, stats, func() string {
					updated := "never"
					if !stats.LastUpdated.IsZero() {
						updated = stats.LastUpdated.Local().Format("2006-01-02 15:04:05")
					}
					return renderTable(
						[]string{"Runners", "Clubs", "Last Updated"},
						[][]string{{strconv.Itoa(stats.TotalRunners), strconv.Itoa(stats.TotalClubs), updated}},
						nil,
					)
				})
			})
		},
	}
}

func newRunnersUseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Record that a runner was picked (raises search ranking)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				r, err := a.store.RecordUsage(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, ctx, r, func() string {
					return fmt.Sprintf("%s used %d times", r.FullName(), r.TimesUsed)
				})
			})
		},
	}
}

func renderRunners(runners []*runnerdb.Runner) string {
	if len(runners) == 0 {
		return "No runners"
	}
	rows := make([][]string, 0, len(runners))
	for _, r := range runners {
		rows = append(rows, []string{
			r.ID,
			r.FullName(),
			optionalInt(r.BirthYear),
			orDash(string(r.Sex)),
			orDash(r.Club),
			optionalInt(r.CardNumber),
			strconv.Itoa(r.TimesUsed),
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Born", "Sex", "Club", "Card", "Used"},
		rows,
		nil,
	)
}

func renderRunnerDetail(r *runnerdb.Runner, clubHint string) string {
	lastUsed := "never"
	if !r.LastUsed.IsZero() {
		lastUsed = r.LastUsed.Local().Format("2006-01-02 15:04:05")
	}
	club := orDash(r.Club)
	if clubHint != "" {
		club += " (" + clubHint + ")"
	}
	rows := [][]string{
		{"ID", r.ID},
		{"Name", r.FullName()},
		{"Birth year", optionalInt(r.BirthYear)},
		{"Sex", orDash(string(r.Sex))},
		{"Club", club},
		{"Card", optionalInt(r.CardNumber)},
		{"Phone", orDash(r.Phone)},
		{"Email", orDash(r.Email)},
		{"Nationality", r.Nationality},
		{"Completeness", fmt.Sprintf("%d/5", r.Completeness())},
		{"Needs completion", yesNo(r.NeedsCompletion())},
		{"Times used", strconv.Itoa(r.TimesUsed)},
		{"Last used", lastUsed},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}
