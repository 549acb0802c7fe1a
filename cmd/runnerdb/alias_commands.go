package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAliasCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage club alias hints",
	}
	cmd.AddCommand(newAliasAddCommand(ctx))
	cmd.AddCommand(newAliasRemoveCommand(ctx))
	cmd.AddCommand(newAliasListCommand(ctx))
	return cmd
}

func newAliasAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <alias> <canonical-club-name>",
		Short: "Register a variant spelling for a club",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				added, err := a.resolver.AddClubAlias(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return emit(cmd, ctx, added, func() string {
					return a.resolver.Hint(added.Alias)
				})
			})
		},
	}
}

func newAliasRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <alias>",
		Aliases: []string{"rm"},
		Short:   "Remove a club alias",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				if err := a.resolver.DeleteClubAlias(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed alias %q\n", args[0])
				return nil
			})
		},
	}
}

func newAliasListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List club aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				aliases := a.resolver.List()
				return emit(cmd, ctx, aliases, func() string {
					if len(aliases) == 0 {
						return "No aliases"
					}
					rows := make([][]string, 0, len(aliases))
					for _, al := range aliases {
						rows = append(rows, []string{al.Alias, al.ClubName, fmt.Sprint(al.ClubID)})
					}
					return renderTable(
						[]string{"Alias", "Club", "Club ID"},
						rows,
						nil,
					)
				})
			})
		},
	}
}
