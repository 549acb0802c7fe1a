package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"runnerdb/internal/config"
	"runnerdb/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var showErrors bool
	cmd := &cobra.Command{
		Use:   "import <rows.json>",
		Short: "Import pre-parsed runner rows (JSON array, '-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app) error {
				var opts []importer.Option
				progress := newProgressLine(cmd.ErrOrStderr())
				if !ctx.jsonOutput() && isTerminal(os.Stderr) {
					opts = append(opts, importer.WithProgress(progress.update))
				}
				result, importErr := a.importer(opts...).Import(cmd.Context(), rows)
				progress.finish()
				if result == nil {
					return importErr
				}
				if err := emit(cmd, ctx, result, func() string { return renderImportResult(result, showErrors) }); err != nil {
					return err
				}
				return importErr
			})
		},
	}
	cmd.Flags().BoolVar(&showErrors, "errors", true, "List skipped rows")
	return cmd
}

func readRows(cmd *cobra.Command, source string) ([]importer.Row, error) {
	var reader io.Reader
	if source == "-" {
		reader = cmd.InOrStdin()
	} else {
		path, err := config.ExpandPath(source)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rows: %w", err)
		}
		defer file.Close()
		reader = file
	}
	var rows []importer.Row
	if err := json.NewDecoder(reader).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows from %s: %w", source, err)
	}
	return rows, nil
}

// progressLine redraws one "Importing N/M rows" line in place and ends it
// once, however many reports arrive for the final count.
type progressLine struct {
	w     io.Writer
	drawn bool
}

func newProgressLine(w io.Writer) *progressLine {
	return &progressLine{w: w}
}

func (p *progressLine) update(pr importer.Progress) {
	fmt.Fprintf(p.w, "\rImporting %d/%d rows", pr.Processed, pr.Total)
	p.drawn = true
}

func (p *progressLine) finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderImportResult(result *importer.Result, showErrors bool) string {
	out := renderTable(
		[]string{"Batch", "Imported", "New", "Skipped", "Duration"},
		[][]string{{
			result.BatchID,
			fmt.Sprint(result.Imported),
			fmt.Sprint(result.Created),
			fmt.Sprint(result.Skipped),
			result.Duration.Round(time.Millisecond).String(),
		}},
		[]columnAlignment{alignAuto, alignAuto, alignAuto, alignAuto, alignRight},
	)
	if !showErrors || len(result.Errors) == 0 {
		return out
	}
	rows := make([][]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, []string{fmt.Sprint(e.Row), e.Reason})
	}
	return out + "\n" + renderTable([]string{"Row", "Reason"}, rows, nil)
}
