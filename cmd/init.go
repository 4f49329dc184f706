package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterSuiteTemplate = `mpi:
  command: %s
  ranks: %s
vol: null
directory: %s
benchmarks:
  - benchmark: write
    file: test.h5
    configuration:
      MEM_PATTERN: CONTIG
      FILE_PATTERN: CONTIG
      NUM_PARTICLES: 16 M
      TIMESTEPS: "5"
      NUM_DIMS: "1"
      DIM_1: "16777216"
      MODE: SYNC
      COLLECTIVE_DATA: "NO"
      COLLECTIVE_METADATA: "NO"
  - benchmark: read
    file: test.h5
    configuration:
      MEM_PATTERN: CONTIG
      FILE_PATTERN: CONTIG
      NUM_PARTICLES: 16 M
      TIMESTEPS: "5"
      NUM_DIMS: "1"
      DIM_1: "16777216"
      MODE: SYNC
`

var initCmd = &cobra.Command{
	Use:   "init [suite-file]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Scaffold a starter benchmark suite file",
	Long: `Initialize a starter suite file with a paired write/read benchmark.

The command launches an interactive prompt to collect the launcher
command, the rank count and the results directory, then writes a
ready-to-run suite file you can extend with metadata, amrex, openpmd
or exerciser steps.`,
	Run: func(cmd *cobra.Command, args []string) {
		outFile := "h5bench.yml"
		if len(args) > 0 {
			outFile = args[0]
		}

		if _, err := os.Stat(outFile); err == nil {
			cobra.CheckErr(fmt.Errorf("%s already exists, refusing to overwrite", outFile))
		}

		launcherCmd, ranks, directory, canceled := RunInitTUI()
		if canceled {
			fmt.Println("✖ h5bench init canceled.")
			return
		}

		content := fmt.Sprintf(starterSuiteTemplate, launcherCmd, ranks, directory)
		if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to write %s: %w", outFile, err))
		}

		fmt.Printf("✓ starter suite written to %q!\n", outFile)
	},
}
