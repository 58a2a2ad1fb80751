package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/config"
	"github.com/statlab/bayeslab/internal/store"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a bayeslab workspace in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if err := store.EnsureWorkDir(root); err != nil {
				return err
			}

			// Write the default config only if none exists yet.
			cfgPath := store.ConfigPath(root)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				data, err := yaml.Marshal(config.Default())
				if err != nil {
					return fmt.Errorf("failed to marshal default config: %w", err)
				}
				if err := os.WriteFile(cfgPath, data, 0644); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
			}

			// Open once so the database and schema exist up front.
			st, err := store.Open(root)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"workspace": store.WorkDir(root),
					"config":    cfgPath,
					"database":  store.DBPath(root),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized bayeslab workspace at %s\n", store.WorkDir(root))
			return nil
		},
	}
}
