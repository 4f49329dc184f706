package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build; the default marks dev
// builds.
var Version = "2.0.0-dev"

var Verbose bool

var rootCmd = &cobra.Command{
	Use:     "h5bench",
	Short:   "h5bench orchestrates suites of parallel I/O benchmarks",
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("h5bench: a benchmark suite for parallel HDF5 workloads.")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logs to stderr")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
