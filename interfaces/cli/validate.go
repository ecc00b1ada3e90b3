package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/arrange-go/interfaces/api"
)

type validateOptions struct {
	configPath string
	strict     bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a studio configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version, service.base_url)
  - Endpoint paths and index bases
  - Cache, history and telemetry backends
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  arrange validate -c studio.yaml

  # Strict validation (fail on missing env vars)
  arrange validate -c studio.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on unset environment variables")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	loader := api.NewConfigLoaderWithOptions(
		api.ConfigWithValidation(true),
		api.ConfigWithStrictEnv(opts.strict),
	)
	config, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", config.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", config.Version)
	fmt.Fprintf(a.stdout, "  Service: %s\n", config.Service.BaseURL)

	if len(config.Service.Endpoints) > 0 {
		kinds := make([]string, 0, len(config.Service.Endpoints))
		for kind := range config.Service.Endpoints {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		fmt.Fprintf(a.stdout, "  Endpoint overrides: %v\n", kinds)
	}

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Cache: %s\n", backendOrNone(config.Cache.Backend))
	fmt.Fprintf(a.stdout, "  History: %s\n", backendOrNone(config.History.Backend))
	fmt.Fprintf(a.stdout, "  Tracing: %s\n", backendOrNone(config.Telemetry.Exporter))
	if config.Resilience.Retry.Enabled {
		fmt.Fprintf(a.stdout, "  Retry: %d attempts\n", config.Resilience.Retry.MaxAttempts)
	}
	if config.Notification.Enabled {
		fmt.Fprintf(a.stdout, "  Notifications: enabled (%d endpoints)\n", len(config.Notification.Endpoints))
	}
	if config.Workspace.ReloadAfterCommit {
		fmt.Fprintf(a.stdout, "  Reload after commit: enabled\n")
	}

	return nil
}

func backendOrNone(name string) string {
	if name == "" {
		return "none"
	}
	return name
}
