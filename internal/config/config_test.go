package config

import "testing"

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero mark threshold", func(c *Config) { c.MarkThreshold = 0 }},
		{"mark threshold above one", func(c *Config) { c.MarkThreshold = 1.5 }},
		{"negative low threshold", func(c *Config) { c.LowThreshold = -0.1 }},
		{"low threshold above mark", func(c *Config) { c.LowThreshold = 0.5 }},
		{"negative tie epsilon", func(c *Config) { c.TieEpsilon = -0.01 }},
		{"binarize threshold above 255", func(c *Config) { c.BinarizeThreshold = 300 }},
		{"negative binarize threshold", func(c *Config) { c.BinarizeThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MCQ_SCAN_MARK_THRESHOLD", "0.6")
	t.Setenv("MCQ_SCAN_LOW_THRESHOLD", "0.25")
	t.Setenv("MCQ_SCAN_BINARIZE_THRESHOLD", "140")
	t.Setenv("MCQ_SCAN_DEBUG", "true")
	t.Setenv("MCQ_SCAN_OUTPUT_DIR", "/tmp/out")

	cfg := FromEnv()
	if cfg.MarkThreshold != 0.6 {
		t.Errorf("MarkThreshold: got %v, want 0.6", cfg.MarkThreshold)
	}
	if cfg.LowThreshold != 0.25 {
		t.Errorf("LowThreshold: got %v, want 0.25", cfg.LowThreshold)
	}
	if cfg.BinarizeThreshold != 140 {
		t.Errorf("BinarizeThreshold: got %d, want 140", cfg.BinarizeThreshold)
	}
	if !cfg.Debug {
		t.Error("Debug: got false, want true")
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir: got %q, want /tmp/out", cfg.OutputDir)
	}
}

func TestFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("MCQ_SCAN_MARK_THRESHOLD", "not-a-number")
	t.Setenv("MCQ_SCAN_BINARIZE_THRESHOLD", "high")
	t.Setenv("MCQ_SCAN_DEBUG", "maybe")

	cfg := FromEnv()
	def := Default()
	if cfg.MarkThreshold != def.MarkThreshold {
		t.Errorf("MarkThreshold: got %v, want default %v", cfg.MarkThreshold, def.MarkThreshold)
	}
	if cfg.BinarizeThreshold != def.BinarizeThreshold {
		t.Errorf("BinarizeThreshold: got %d, want default %d", cfg.BinarizeThreshold, def.BinarizeThreshold)
	}
	if cfg.Debug != def.Debug {
		t.Errorf("Debug: got %v, want default %v", cfg.Debug, def.Debug)
	}
}
