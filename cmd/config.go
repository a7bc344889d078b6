package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intakehq/intake/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the intake config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := localConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return err
	},
}

var configSetBaseURLCmd = &cobra.Command{
	Use:   "set-base-url <url>",
	Short: "Point intake at a registration backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		if err := config.SaveAPIBaseURL(cfgPath, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "api.base_url set in %s\n", cfgPath)
		return err
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store the bearer token sent to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		if err := config.SaveAPIToken(cfgPath, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "api.token set in %s\n", cfgPath)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configSetBaseURLCmd, configSetTokenCmd)
	rootCmd.AddCommand(configCmd)
}
