package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicescribe/internal/deps"
	"voicescribe/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external binaries and paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			depRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				detail := status.Path
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
					detail = status.Detail
				}
				depRows = append(depRows, []string{status.Name, state, detail, status.Description})
			}
			fmt.Fprintln(out, renderTable(tableSpec{title: "Binaries", headers: []string{"Name", "Status", "Path", "Purpose"}, rows: depRows}))

			checks := preflight.RunAll(cfg)
			checkRows := make([][]string, 0, len(checks))
			for _, check := range checks {
				checkRows = append(checkRows, []string{check.Name, yesNo(check.Passed), check.Detail})
			}
			fmt.Fprintln(out, renderTable(tableSpec{title: "Paths", headers: []string{"Check", "OK", "Detail"}, rows: checkRows}))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				fmt.Fprintf(out, "Missing required binaries: %s\n", strings.Join(missing, ", "))
				return exitError{code: 1}
			}
			if preflight.Failed(checks) {
				fmt.Fprintln(out, "One or more path checks failed")
				return exitError{code: 1}
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}
