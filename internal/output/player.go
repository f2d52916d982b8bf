package output

import (
	"context"
	"strconv"
	"strings"

	"github.com/rbright/echonews/internal/config"
)

// RatePlaceholder in a player command is replaced by the PCM sample rate.
const RatePlaceholder = "{rate}"

// CommandPlayer pipes raw s16le mono PCM to an external player such as
// pw-play or aplay. Cancelling ctx kills the player.
type CommandPlayer struct {
	argv []string
}

// NewCommandPlayer constructs a player from narration.player_cmd.
func NewCommandPlayer(cmd config.CommandConfig) *CommandPlayer {
	return &CommandPlayer{argv: append([]string(nil), cmd.Argv...)}
}

// Play blocks until the player exits or ctx is done.
func (p *CommandPlayer) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}
	return runCommandWithInput(ctx, p.expand(sampleRate), pcm)
}

func (p *CommandPlayer) expand(sampleRate int) []string {
	rate := strconv.Itoa(sampleRate)
	argv := make([]string, len(p.argv))
	for i, arg := range p.argv {
		argv[i] = strings.ReplaceAll(arg, RatePlaceholder, rate)
	}
	return argv
}
