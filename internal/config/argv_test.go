package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "player", input: "pw-play --rate 24000 --format s16 -", want: []string{"pw-play", "--rate", "24000", "--format", "s16", "-"}},
		{name: "double quoted", input: `aplay --device "USB Audio"`, want: []string{"aplay", "--device", "USB Audio"}},
		{name: "single quoted", input: `aplay --device 'USB Audio'`, want: []string{"aplay", "--device", "USB Audio"}},
		{name: "empty quotes keep word", input: `cmd ""`, want: []string{"cmd", ""}},
		{name: "escaped space", input: `cmd hello\ world`, want: []string{"cmd", "hello world"}},
		{name: "home expansion", input: "~/bin/play -", want: []string{filepath.Join(home, "bin/play"), "-"}},
		{name: "disabled", input: `# wl-copy`, want: nil},
		{name: "unterminated quote", input: `cmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `cmd hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`cmd "unterminated`)
	})
}
