package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/echonews/internal/config"
	"github.com/stretchr/testify/require"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, []byte("hello from echonews"))
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from echonews", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, []byte("payload"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestRunCommandWithInputIncludesStderr(t *testing.T) {
	err := runCommandWithInput(context.Background(), []string{writeFailScript(t, "device busy")}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "device busy")
}

func TestClipboardCopyWritesText(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	clipboard := NewClipboard(config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}, nil)
	require.NoError(t, clipboard.Copy(context.Background(), "🔹 Title - Description"))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "🔹 Title - Description", string(data))
}

func TestClipboardCopySkipsBlankText(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	clipboard := NewClipboard(config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}, nil)
	require.NoError(t, clipboard.Copy(context.Background(), "  \n"))

	_, statErr := os.Stat(clipboardPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestClipboardCopyReturnsErrorWhenCommandFails(t *testing.T) {
	clipboard := NewClipboard(config.CommandConfig{Argv: []string{writeFailScript(t, "clipboard failed")}}, nil)
	err := clipboard.Copy(context.Background(), "reply")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestCommandPlayerPipesPCMAndExpandsRate(t *testing.T) {
	dir := t.TempDir()
	pcmPath := filepath.Join(dir, "pcm.raw")
	argsPath := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "player.sh")
	body := "#!/usr/bin/env bash\nset -euo pipefail\necho \"$1\" > \"" + argsPath + "\"\ncat > \"" + pcmPath + "\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	player := NewCommandPlayer(config.CommandConfig{Argv: []string{script, "--rate=" + RatePlaceholder}})
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	require.NoError(t, player.Play(context.Background(), pcm, 24000))

	data, err := os.ReadFile(pcmPath)
	require.NoError(t, err)
	require.Equal(t, pcm, data)

	args, err := os.ReadFile(argsPath)
	require.NoError(t, err)
	require.Equal(t, "--rate=24000\n", string(args))
}

func TestCommandPlayerStopsWhenContextCancelled(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/usr/bin/env bash\nexec sleep 5\n"), 0o755))

	player := NewCommandPlayer(config.CommandConfig{Argv: []string{script}})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := player.Play(ctx, []byte{0, 0}, 24000)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Less(t, time.Since(started), 3*time.Second)
}

func TestCommandPlayerSkipsEmptyPCM(t *testing.T) {
	player := NewCommandPlayer(config.CommandConfig{})
	require.NoError(t, player.Play(context.Background(), nil, 24000))
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
