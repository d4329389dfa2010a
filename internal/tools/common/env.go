package common

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads KEY=VALUE pairs into the environment. Variables already
// set in the environment win over the file, and a missing file is not an
// error so the tools work both locally and in CI.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
