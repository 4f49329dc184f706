package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbyna/h5bench/internal/models"
)

// SaveStepRecord stores the detailed record for a single step as
// record.json inside the step's directory.
func SaveStepRecord(stepDir string, record models.StepRecord) error {
	filePath := filepath.Join(stepDir, "record.json")

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create step record file %s: %w", filePath, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to encode step record to %s: %w", filePath, err)
	}
	return nil
}
