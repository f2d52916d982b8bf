package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/echonews/internal/config"
)

// Clipboard copies reply text through the configured clipboard command.
type Clipboard struct {
	cmd    config.CommandConfig
	logger *slog.Logger
}

// NewClipboard constructs a clipboard sink from the configured command.
func NewClipboard(cmd config.CommandConfig, logger *slog.Logger) *Clipboard {
	return &Clipboard{cmd: cmd, logger: logger}
}

// Copy writes text to the clipboard. Blank text is a no-op.
func (c *Clipboard) Copy(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(ctx, c.cmd.Argv, []byte(text)); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("clipboard updated", "chars", len(text))
	}
	return nil
}
