package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"crossposter/pkg/config"
	"crossposter/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage crossposter configuration.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file with every option at its default value.

The file is created as .crossposter.yaml in the current directory unless
a different path is given with --config.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. The app password
is masked.`,
	Run: runConfigShow,
}

// pathCmd represents the config path command
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where configuration files are looked up",
	Run:   runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(pathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".crossposter.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to write configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration written to " + configPath)
	fmt.Println("\nSet source.account and mirror.base_url, then run 'crossposter auth login'.")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Resolve(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}
	fmt.Print(string(data))

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		ui.PrintWarning("Configuration is incomplete", err)
	}
}

func runConfigPath(cmd *cobra.Command, args []string) {
	active := configFile
	if active == "" {
		active = config.FindConfigFile()
	}

	for _, path := range config.SearchPaths() {
		marker := "  "
		if path == active {
			marker = "* "
		}
		fmt.Println(marker + path)
	}
	if active == "" {
		ui.PrintWarning("No configuration file found; using defaults and environment")
	}
}
