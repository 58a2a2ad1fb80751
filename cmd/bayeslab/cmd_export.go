package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a run's posterior draws to CSV or Arrow",
		Long: `Export a run's draws, one row per kept draw with chain and iteration
columns. Formats: csv, arrow (Arrow IPC file). The default output path
is .bayeslab/exports/run_<id>.<ext>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := resolveRun(cmd, s)
			if err != nil {
				return err
			}
			draws, err := s.Store.LoadDraws(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			var ext string
			switch format {
			case "csv":
				ext = "csv"
			case "arrow":
				ext = "arrow"
			default:
				return fmt.Errorf("unknown format %q (valid: csv, arrow)", format)
			}
			if out == "" {
				out = filepath.Join(store.ExportsDir(s.Root), fmt.Sprintf("run_%d.%s", run.ID, ext))
			}

			if format == "csv" {
				err = store.ExportCSV(out, draws)
			} else {
				err = store.ExportArrow(out, draws)
			}
			if err != nil {
				return fmt.Errorf("exporting run %d: %w", run.ID, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id": run.ID,
					"format": format,
					"path":   out,
					"draws":  draws.TotalDraws(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d draws from run %d to %s\n",
				draws.TotalDraws(), run.ID, out)
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().String("format", "csv", "Export format: csv or arrow")
	cmd.Flags().String("out", "", "Output path (default .bayeslab/exports/run_<id>.<ext>)")

	return cmd
}
