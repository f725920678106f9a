package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stefanpenner/pomo/pkg/clierr"
	"github.com/stefanpenner/pomo/pkg/config"
	"github.com/stefanpenner/pomo/pkg/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create the configuration file",
	Long:  `Shows the effective configuration with credentials redacted.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if outputFormat() == output.FormatJSON {
			return output.JSON(cmd.OutOrStdout(), map[string]string{"path": configPath()})
		}
		output.Messagef(cmd.OutOrStdout(), "%s", configPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), redacted)
	}
	data, err := yaml.Marshal(redacted)
	if err != nil {
		return clierr.New(clierr.InternalError, err.Error())
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return clierr.Newf(clierr.ConfigError, "%s already exists; use --force to overwrite", path).
			WithDetails(map[string]any{"path": path})
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return clierr.New(clierr.ConfigError, err.Error())
	}

	if err := config.Default().Save(path); err != nil {
		return clierr.New(clierr.ConfigError, err.Error())
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), map[string]string{"status": "created", "path": path})
	}
	output.Messagef(cmd.OutOrStdout(), "Wrote %s", path)
	return nil
}
