package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/target"
	"github.com/muurk/bl1prov/internal/ui"
)

// configCmd groups the profile subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved defaults",
	Long: `Show or change the values saved in the configuration file.

Saved values apply when the matching flag is not given on the command
line. The file lives at $XDG_CONFIG_HOME/bl1prov/config.yaml, or
%LOCALAPPDATA%\bl1prov\config.yaml on Windows, unless --config is set.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved and effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		path, err := profilePath()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		p.PrintHeader("Configuration", "bl1-provision config show", map[string]string{
			"File": path,
		})

		saved := map[string]string{
			"jlink_path":     orUnset(activeProfile.JLinkPath),
			"default_target": orUnset(activeProfile.DefaultTarget),
			"timeout":        "(unset)",
		}
		if activeProfile.Timeout > 0 {
			saved["timeout"] = activeProfile.Timeout.String()
		}
		p.PrintSuccess("Saved", saved)

		p.PrintSuccess("Effective", map[string]string{
			"Target":     activeTarget.Name,
			"Executable": jlinkConfig.Executable,
			"Device":     jlinkConfig.Device,
			"Interface":  fmt.Sprintf("%s @ %d kHz", jlinkConfig.Interface, jlinkConfig.Speed),
			"Timeout":    jlinkConfig.Timeout.String(),
		})
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save --jlink-path, --target and --timeout as defaults",
	Example: `  bl1-provision config set --jlink-path /opt/SEGGER/JLink/JLinkExe
  bl1-provision config set --timeout 3m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		flags := cmd.Flags()
		changed := false
		if flags.Changed("jlink-path") {
			activeProfile.JLinkPath = jlinkPath
			changed = true
		}
		if flags.Changed("target") {
			activeProfile.DefaultTarget = targetName
			changed = true
		}
		if flags.Changed("timeout") {
			activeProfile.Timeout = overrides.Timeout
			changed = true
		}
		if !changed {
			return usageError(cmd, "set at least one of --jlink-path, --target or --timeout")
		}

		path, err := profilePath()
		if err != nil {
			return err
		}
		if err := activeProfile.Save(path); err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		p.Printf("Configuration saved to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func profilePath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return target.GetProfilePath()
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
