package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// A .env next to the config file, then one in the working directory, are
// loaded first so API key variables can live there.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	envWarnings := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env")

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: base,
				Warnings: append(envWarnings, Warning{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}),
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: append(envWarnings, warnings...),
		Exists:   true,
	}, nil
}

// loadDotEnv loads each existing file without overriding variables already
// set in the environment.
func loadDotEnv(paths ...string) []Warning {
	var warnings []Warning
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("ignoring %s: %v", path, err)})
		}
	}
	return warnings
}

// Secret reads an API key from the named environment variable.
func Secret(envName string) string {
	envName = strings.TrimSpace(envName)
	if envName == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envName))
}

// QAKeyEnv returns the variable holding the QA provider's key.
func (c Config) QAKeyEnv() string {
	if env := strings.TrimSpace(c.QA.APIKeyEnv); env != "" {
		return env
	}
	switch strings.ToLower(strings.TrimSpace(c.QA.Provider)) {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
