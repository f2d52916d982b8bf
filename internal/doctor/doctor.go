// Package doctor runs readiness diagnostics for config, API keys, tools, audio, and the news API.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/echonews/internal/audio"
	"github.com/rbright/echonews/internal/config"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/qa"
)

const newsProbeTimeout = 5 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}

	checks = append(checks, checkKey(cfg.Config.News.APIKeyEnv, "news lookups"))
	checks = append(checks, checkKey(cfg.Config.Speech.APIKeyEnv, "speech recognition and narration"))
	checks = append(checks, checkQA(cfg.Config))

	if len(cfg.Config.Clipboard.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	}
	if len(cfg.Config.Narration.PlayerCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Narration.PlayerCmd.Argv, "player_cmd"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkNews(ctx, cfg.Config))

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkKey(envName string, purpose string) Check {
	if strings.TrimSpace(envName) == "" {
		return Check{Name: "api key", Pass: false, Message: fmt.Sprintf("no environment variable configured for %s", purpose)}
	}
	return checkEnv(envName, func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, fmt.Sprintf("set (%s)", purpose), fmt.Sprintf("empty; %s will fail", purpose))
}

func checkQA(cfg config.Config) Check {
	provider, err := qa.ParseProvider(cfg.QA.Provider)
	if err != nil {
		return Check{Name: "qa.provider", Pass: false, Message: err.Error()}
	}
	if provider == qa.ProviderNone {
		return Check{Name: "qa.provider", Pass: true, Message: "question answering disabled"}
	}
	return checkKey(cfg.QAKeyEnv(), string(provider)+" question answering")
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkNews asks the latest endpoint for one article with the configured key.
func checkNews(ctx context.Context, cfg config.Config) Check {
	client := news.NewClient(news.Options{
		BaseURL:  cfg.News.BaseURL,
		APIKey:   config.Secret(cfg.News.APIKeyEnv),
		Language: cfg.News.Language,
		Timeout:  newsProbeTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, newsProbeTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		var status *news.StatusError
		if errors.As(err, &status) {
			return Check{Name: "news.api", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", status.Code, cfg.News.BaseURL)}
		}
		return Check{Name: "news.api", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	return Check{Name: "news.api", Pass: true, Message: fmt.Sprintf("reachable at %s", cfg.News.BaseURL)}
}
