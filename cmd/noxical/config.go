package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noxical/noxical/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set configuration",
		Long: `View or set configuration values.

Examples:
  noxical config                      # Show all config values
  noxical config quiet_window_ms      # Get a specific value
  noxical config quiet_window_ms 300  # Set a value
  noxical config init                 # Write the default config file`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Long:  "Write a config file with default values to the standard location, ready to edit.",
		RunE:  runConfigInit,
	}
	cmd.AddCommand(initCmd)

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	switch len(args) {
	case 0:
		// Show all config as YAML
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Print(string(data))
		return nil

	case 1:
		// Get a specific value
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case 2:
		// Set a value
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(""); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil

	default:
		return fmt.Errorf("too many arguments")
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigPath()
	cfg := config.DefaultConfig()

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("Configuration saved to:", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  noxical config                       # Review the defaults")
	fmt.Println("  noxical --input <dir>                # Compile once")
	fmt.Println("  noxical --input <dir> --watch        # Compile on every change")

	return nil
}
