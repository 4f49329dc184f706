package cmd

import (
	"fmt"
	"os"

	"github.com/sbyna/h5bench/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [suite-file]",
	Short: "Validate the syntax and structure of a suite file",
	Long: `Lint checks a suite file for correctness: required top-level keys,
a usable launcher configuration, a complete vol block when one is
declared, and per-step requirements such as output file names. Nothing
is executed and no directories are created.

Use this command to check a suite before handing it to 'run'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lintFile := "h5bench.yml"

		if len(args) > 0 {
			lintFile = args[0]
		}

		fmt.Printf("Linting file: %s\n", lintFile)

		_, _, err := config.LoadSuiteSpec(lintFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ %s is valid!\n", lintFile)
	},
}
