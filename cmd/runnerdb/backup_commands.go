package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"runnerdb/internal/config"
	"runnerdb/internal/fileutil"
	"runnerdb/internal/runnerdb"
	"runnerdb/internal/textutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var label string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the whole store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				if output == "-" {
					_, err := a.store.ExportDatabase(cmd.OutOrStdout())
					return err
				}
				target, err := exportTarget(a.cfg, output, label, time.Now())
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				snap, err := a.store.ExportDatabase(&buf)
				if err != nil {
					return err
				}
				if err := fileutil.WriteFileAtomic(target, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d runners and %d clubs to %s (snapshot %s)\n",
					len(snap.Runners), len(snap.Clubs), target, snap.SnapshotID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file ('-' for stdout; default: export dir)")
	cmd.Flags().StringVar(&label, "label", "", "Label added to the default file name")
	return cmd
}

func exportTarget(cfg *config.Config, output, label string, now time.Time) (string, error) {
	if strings.TrimSpace(output) != "" {
		return config.ExpandPath(output)
	}
	name := "runnerdb-" + now.Format("20060102-150405")
	if l := textutil.SanitizeFileName(label); l != "" {
		name += "-" + l
	}
	return filepath.Join(cfg.Paths.ExportDir, name+".json"), nil
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "restore <snapshot.json>",
		Short: "Replace the whole store with an exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("restore replaces every runner, club, alias, and suppression; re-run with --yes to continue")
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer file.Close()

			return ctx.withApp(func(a *app) error {
				snap, err := a.store.RestoreDatabase(cmd.Context(), file)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, restoreSummary(snap), func() string {
					return fmt.Sprintf("Restored snapshot %s: %d runners, %d clubs, %d aliases, %d suppressed pairs",
						snap.SnapshotID, len(snap.Runners), len(snap.Clubs), len(snap.Aliases), len(snap.Suppressions))
				})
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm replacing the current store")
	return cmd
}

type restoreResult struct {
	SnapshotID   string    `json:"snapshot_id"`
	CreatedAt    time.Time `json:"created_at"`
	Runners      int       `json:"runners"`
	Clubs        int       `json:"clubs"`
	Aliases      int       `json:"aliases"`
	Suppressions int       `json:"suppressions"`
}

func restoreSummary(snap *runnerdb.Snapshot) restoreResult {
	return restoreResult{
		SnapshotID:   snap.SnapshotID,
		CreatedAt:    snap.CreatedAt,
		Runners:      len(snap.Runners),
		Clubs:        len(snap.Clubs),
		Aliases:      len(snap.Aliases),
		Suppressions: len(snap.Suppressions),
	}
}
