package main

import (
	"errors"

	"github.com/spf13/cobra"

	"runnerdb/internal/preflight"
)

type doctorCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories and the store lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			checks := make([]doctorCheck, 0, len(results))
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				checks = append(checks, doctorCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
				status := "OK"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			if err := emit(cmd, ctx, checks, func() string {
				return renderTable([]string{"Check", "Status", "Detail"}, rows, nil)
			}); err != nil {
				return err
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
