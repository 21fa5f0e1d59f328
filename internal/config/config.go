package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the tunable detection settings for one scan run.
//
// It is a plain value threaded explicitly through the pipeline call: there is
// no process-wide mutable state, so concurrent runs with different settings
// never interfere.
type Config struct {
	// MarkThreshold is the fill ratio at or above which a bubble counts as
	// confidently marked.
	MarkThreshold float64

	// LowThreshold is the fill ratio below which a bubble is unmarked.
	// Ratios between LowThreshold and MarkThreshold classify as marked but
	// carry a low-confidence flag.
	LowThreshold float64

	// TieEpsilon is the fill-ratio margin within which two above-threshold
	// bubbles are treated as an ambiguous answer rather than resolved to
	// the darker one.
	TieEpsilon float64

	// BinarizeThreshold fixes the dark-pixel cutoff (1-255) used when
	// measuring fill ratios. Zero selects automatic Otsu estimation.
	BinarizeThreshold int

	// Debug retains intermediate artifacts: the canonical rectified image
	// and a classification overlay, written to OutputDir.
	Debug bool

	// OutputDir is where results and debug artifacts are written.
	OutputDir string

	// OutputFilename is the JSON result filename inside OutputDir.
	OutputFilename string
}

// Default returns the stock configuration. The thresholds are calibrated
// against the mark simulator: the fill measurement excludes the printed
// circle outline, so a deliberate mark lands well above 0.45 while stray
// pen rest marks stay under 0.20.
func Default() Config {
	return Config{
		MarkThreshold:  0.45,
		LowThreshold:   0.20,
		TieEpsilon:     0.03,
		Debug:          false,
		OutputDir:      ".",
		OutputFilename: "scanned_answers.json",
	}
}

// FromEnv builds a configuration from MCQ_SCAN_* environment variables on
// top of the defaults. A .env file in the working directory is loaded first
// when present; a missing file is not an error.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.MarkThreshold = getEnvFloat("MCQ_SCAN_MARK_THRESHOLD", cfg.MarkThreshold)
	cfg.LowThreshold = getEnvFloat("MCQ_SCAN_LOW_THRESHOLD", cfg.LowThreshold)
	cfg.TieEpsilon = getEnvFloat("MCQ_SCAN_TIE_EPSILON", cfg.TieEpsilon)
	cfg.BinarizeThreshold = getEnvInt("MCQ_SCAN_BINARIZE_THRESHOLD", cfg.BinarizeThreshold)
	cfg.Debug = getEnvBool("MCQ_SCAN_DEBUG", cfg.Debug)
	cfg.OutputDir = getEnv("MCQ_SCAN_OUTPUT_DIR", cfg.OutputDir)
	cfg.OutputFilename = getEnv("MCQ_SCAN_OUTPUT_FILE", cfg.OutputFilename)
	return cfg
}

// Validate checks threshold sanity before a run starts.
func (c Config) Validate() error {
	if c.MarkThreshold <= 0 || c.MarkThreshold > 1 {
		return fmt.Errorf("config: mark threshold must be in (0,1], got %v", c.MarkThreshold)
	}
	if c.LowThreshold < 0 || c.LowThreshold >= c.MarkThreshold {
		return fmt.Errorf("config: low threshold must be in [0, mark threshold), got %v", c.LowThreshold)
	}
	if c.TieEpsilon < 0 || c.TieEpsilon > 1 {
		return fmt.Errorf("config: tie epsilon must be in [0,1], got %v", c.TieEpsilon)
	}
	if c.BinarizeThreshold < 0 || c.BinarizeThreshold > 255 {
		return fmt.Errorf("config: binarize threshold must be 0 (auto) or 1-255, got %d", c.BinarizeThreshold)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
