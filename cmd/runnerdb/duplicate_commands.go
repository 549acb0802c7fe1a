package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"runnerdb/internal/runnerdb"
	"runnerdb/internal/similarity"
	"runnerdb/internal/textutil"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "duplicates",
		Aliases: []string{"dupes"},
		Short:   "Find and resolve probable duplicate runners",
	}
	cmd.AddCommand(newDuplicatesScanCommand(ctx))
	cmd.AddCommand(newDuplicatesMergeCommand(ctx))
	cmd.AddCommand(newDuplicatesIgnoreCommand(ctx))
	return cmd
}

type duplicateView struct {
	similarity.Candidate
	Name1 string `json:"name_1"`
	Name2 string `json:"name_2"`
}

func newDuplicatesScanCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var limit int
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score runner pairs and list those at or above the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				if !cmd.Flags().Changed("threshold") {
					threshold = a.cfg.Similarity.DefaultThreshold
				}
				if threshold < 0 || threshold > similarity.MaxScore {
					return fmt.Errorf("threshold must be between 0 and 100, got %v", threshold)
				}
				candidates := a.engine.FindDuplicates(a.store.Runners(), a.store.IsSuppressed, threshold)
				if limit > 0 && len(candidates) > limit {
					candidates = candidates[:limit]
				}
				views := make([]duplicateView, 0, len(candidates))
				for _, c := range candidates {
					views = append(views, duplicateView{
						Candidate: c,
						Name1:     runnerLabel(a.store, c.RunnerID1),
						Name2:     runnerLabel(a.store, c.RunnerID2),
					})
				}
				return emit(cmd, ctx, views, func() string { return renderDuplicates(views, threshold) })
			})
		},
	}
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Minimum score 0-100 (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum pairs to list (0 for all)")
	return cmd
}

func runnerLabel(store *runnerdb.Store, id string) string {
	r, ok := store.Runner(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("%s (%s)", r.FullName(), textutil.DisplayName(textutil.FullName(r.FirstName, r.LastName)))
}

func renderDuplicates(views []duplicateView, threshold float64) string {
	if len(views) == 0 {
		return fmt.Sprintf("No duplicate candidates at threshold %.0f", threshold)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			fmt.Sprintf("%.1f", v.Score),
			v.RunnerID1,
			v.Name1,
			v.RunnerID2,
			v.Name2,
			v.Reason,
		})
	}
	return renderTable(
		[]string{"Score", "ID 1", "Runner 1 (compared as)", "ID 2", "Runner 2 (compared as)", "Reason"},
		rows,
		nil,
	)
}

func newDuplicatesMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <id1> <id2>",
		Short: "Keep the more complete runner and delete the other (ties keep id1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				result, err := a.merger.MergeRunners(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return emit(cmd, ctx, result, func() string {
					return fmt.Sprintf("Kept %s (%s); deleted %s (%s)",
						result.Survivor.ID, result.Survivor.FullName(),
						result.Removed.ID, result.Removed.FullName())
				})
			})
		},
	}
}

func newDuplicatesIgnoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <id1> <id2>",
		Short: "Mark two runners as different people so scans never pair them again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				if err := a.merger.MarkDuplicateAsUnique(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s and %s as different runners\n", args[0], args[1])
				return nil
			})
		},
	}
}
