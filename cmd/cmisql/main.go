package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmisql",
		Short: "Inspect CMIS type definitions and queries offline",
		Long: `cmisql loads a type definition file into a fresh registry and
lets you browse the resulting type hierarchy or see how a CMIS query
statement binds against it, without starting a server.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("file", "f", "", "YAML type definition file")

	rootCmd.AddCommand(NewTypesCommand())
	rootCmd.AddCommand(NewExplainCommand())

	return rootCmd
}

// loadRegistry builds a registry holding the base types plus everything in
// the --file flag, if set.
func loadRegistry(cmd *cobra.Command) (*typedef.Registry, error) {
	reg := typedef.NewRegistry()
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return reg, nil
	}
	if _, err := reg.LoadYAMLFile(path); err != nil {
		return nil, fmt.Errorf("failed to load types from %s: %w", path, err)
	}
	return reg, nil
}
