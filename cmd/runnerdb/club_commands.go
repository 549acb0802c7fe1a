package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"runnerdb/internal/similarity"
)

func newClubsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clubs",
		Short: "Inspect and normalize clubs",
	}
	cmd.AddCommand(newClubsListCommand(ctx))
	cmd.AddCommand(newClubsMisspellingsCommand(ctx))
	cmd.AddCommand(newClubsMergeCommand(ctx))
	cmd.AddCommand(newClubsRenameCommand(ctx))
	return cmd
}

func newClubsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clubs with runner counts and aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				clubs := a.store.Clubs()
				return emit(cmd, ctx, clubs, func() string {
					if len(clubs) == 0 {
						return "No clubs"
					}
					aliases := map[int64][]string{}
					for _, al := range a.resolver.List() {
						aliases[al.ClubID] = append(aliases[al.ClubID], al.Alias)
					}
					rows := make([][]string, 0, len(clubs))
					for _, c := range clubs {
						rows = append(rows, []string{
							strconv.FormatInt(c.ID, 10),
							c.Name,
							strconv.Itoa(c.RunnerCount),
							orDash(strings.Join(aliases[c.ID], ", ")),
						})
					}
					return renderTable(
						[]string{"ID", "Name", "Runners", "Aliases"},
						rows,
						nil,
					)
				})
			})
		},
	}
}

func newClubsMisspellingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "misspellings",
		Short: "List club name pairs within a small edit distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				found := a.engine.FindClubMisspellings(a.store.Clubs())
				return emit(cmd, ctx, found, func() string { return renderMisspellings(found) })
			})
		},
	}
}

func renderMisspellings(found []similarity.ClubMisspelling) string {
	if len(found) == 0 {
		return "No club misspellings found"
	}
	rows := make([][]string, 0, len(found))
	for _, m := range found {
		other := m.Other()
		rows = append(rows, []string{
			fmt.Sprintf("%s (%d)", m.Club1.Name, m.Club1.RunnerCount),
			fmt.Sprintf("%s (%d)", m.Club2.Name, m.Club2.RunnerCount),
			strconv.Itoa(m.Distance),
			fmt.Sprintf("runnerdb clubs merge %d %d", other.ID, m.Suggested.ID),
		})
	}
	return renderTable(
		[]string{"Club 1 (runners)", "Club 2 (runners)", "Distance", "Suggested"},
		rows,
		nil,
	)
}

func newClubsMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <from> <into>",
		Short: "Move every runner and alias of one club to another and delete it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				from, err := resolveClub(a.store, args[0])
				if err != nil {
					return err
				}
				into, err := resolveClub(a.store, args[1])
				if err != nil {
					return err
				}
				result, err := a.merger.MergeClubs(cmd.Context(), from.ID, into.ID)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, result, func() string {
					return fmt.Sprintf("Merged %q into %q: %d runners and %d aliases moved; %q now has %d runners",
						result.From.Name, result.Into.Name, result.MovedRunners, result.MovedAliases,
						result.Into.Name, result.Into.RunnerCount)
				})
			})
		},
	}
}

func newClubsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <club> <new-name>",
		Short: "Change a club's canonical name (aliases follow automatically)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				club, err := resolveClub(a.store, args[0])
				if err != nil {
					return err
				}
				renamed, err := a.merger.RenameClub(cmd.Context(), club.ID, args[1])
				if err != nil {
					return err
				}
				return emit(cmd, ctx, renamed, func() string {
					return fmt.Sprintf("Renamed club %d from %q to %q", renamed.ID, club.Name, renamed.Name)
				})
			})
		},
	}
}
