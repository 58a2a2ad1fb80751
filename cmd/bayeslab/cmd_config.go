package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/config"
	"github.com/statlab/bayeslab/internal/store"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage workspace configuration",
		Long: `View and modify workspace configuration settings.

Configuration is stored in .bayeslab/config.yaml; BAYESLAB_* environment
variables override it at load time.

Examples:
  bayeslab config list                       # Show all settings
  bayeslab config get sampler.chains         # Get a specific setting
  bayeslab config set sampler.iterations 2000`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration (%s):\n\n", store.ConfigPath(root))
			fmt.Fprintln(out, "Sampler:")
			fmt.Fprintf(out, "  sampler.chains:         %d\n", cfg.Sampler.Chains)
			fmt.Fprintf(out, "  sampler.warmup:         %d\n", cfg.Sampler.Warmup)
			fmt.Fprintf(out, "  sampler.iterations:     %d\n", cfg.Sampler.Iterations)
			fmt.Fprintf(out, "  sampler.seed:           %d\n", cfg.Sampler.Seed)
			fmt.Fprintf(out, "  sampler.target_accept:  %.3f\n", cfg.Sampler.TargetAccept)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Summary:")
			fmt.Fprintf(out, "  summary.interval_mass:  %.2f\n", cfg.Summary.IntervalMass)
			fmt.Fprintf(out, "  summary.ppc_draws:      %d\n", cfg.Summary.PPCDraws)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging:")
			fmt.Fprintf(out, "  logging.level:          %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			cfg, err := config.Load(root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			v, err := configValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			if err := store.EnsureWorkDir(root); err != nil {
				return err
			}

			// Load from file only: env overrides must not be written back.
			path := store.ConfigPath(root)
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = config.Default()
			}

			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "sampler.chains":
		return strconv.Itoa(cfg.Sampler.Chains), nil
	case "sampler.warmup":
		return strconv.Itoa(cfg.Sampler.Warmup), nil
	case "sampler.iterations":
		return strconv.Itoa(cfg.Sampler.Iterations), nil
	case "sampler.seed":
		return strconv.FormatUint(cfg.Sampler.Seed, 10), nil
	case "sampler.target_accept":
		return strconv.FormatFloat(cfg.Sampler.TargetAccept, 'g', -1, 64), nil
	case "summary.interval_mass":
		return strconv.FormatFloat(cfg.Summary.IntervalMass, 'g', -1, 64), nil
	case "summary.ppc_draws":
		return strconv.Itoa(cfg.Summary.PPCDraws), nil
	case "logging.level":
		return cfg.Logging.Level, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "sampler.chains", "sampler.warmup", "sampler.iterations", "summary.ppc_draws":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		switch key {
		case "sampler.chains":
			cfg.Sampler.Chains = n
		case "sampler.warmup":
			cfg.Sampler.Warmup = n
		case "sampler.iterations":
			cfg.Sampler.Iterations = n
		case "summary.ppc_draws":
			cfg.Summary.PPCDraws = n
		}
	case "sampler.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("sampler.seed must be an unsigned integer: %w", err)
		}
		cfg.Sampler.Seed = n
	case "sampler.target_accept", "summary.interval_mass":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		if key == "sampler.target_accept" {
			cfg.Sampler.TargetAccept = f
		} else {
			cfg.Summary.IntervalMass = f
		}
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
