package console

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Console is the user-facing output channel for interactive runs,
// separate from the structured suite.log. In verbose mode the spinner
// stays off so it does not interleave with debug logging.
type Console struct {
	verbose bool
	spinner *spinner.Spinner
}

func New(verbose bool) *Console {
	return &Console{
		verbose: verbose,
		spinner: spinner.New(
			spinner.CharSets[11], // Default ⣾ style spinner
			100*time.Millisecond,
			spinner.WithHiddenCursor(true)),
	}
}

func (c *Console) Info(msg string, args ...any) {
	fmt.Printf(msg+"\n", args...)
}

func (c *Console) Error(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
}

// StartSpinner shows a spinner with the given suffix text. No-op in
// verbose mode.
func (c *Console) StartSpinner(text string) {
	if c.verbose {
		return
	}
	c.spinner.Suffix = " " + text
	c.spinner.Start()
}

func (c *Console) StopSpinner() {
	if c.verbose {
		return
	}
	c.spinner.Stop()
}
