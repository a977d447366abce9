package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soocke/corrmatch/internal/cliconfig"
)

var (
	cfgFile      string
	verbose      bool
	printExample bool
)

func newRootCmd() *cobra.Command {
	defaults := cliconfig.DefaultRunConfig()

	cmd := &cobra.Command{
		Use:   "corrmatch-cli",
		Short: "Locate a template image inside a search image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printExample {
				return printExampleConfig()
			}

			setupLogger(verbose)

			cfg, err := cliconfig.Load(cliconfig.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			return runMatch(cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to a JSON/YAML/TOML run config")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log at debug level")
	cmd.Flags().BoolVar(&printExample, "print-example", false, "Print an example run config and exit")
	cliconfig.RegisterFlags(cmd.Flags(), defaults)

	return cmd
}

// printExampleConfig writes a fully populated RunConfig as JSON, so a user
// can redirect it to a file and edit it instead of guessing the schema.
func printExampleConfig() error {
	cfg := cliconfig.DefaultRunConfig()
	cfg.ImagePath = "search.png"
	cfg.TemplatePath = "template.png"
	cfg.OutputPath = "result.json"
	cfg.TopK = 3
	cfg.Compile.Rotation = true
	cfg.Match.Rotation = true

	enc, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	fmt.Println(string(enc))
	return nil
}
