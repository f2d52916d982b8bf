package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setKeys(t *testing.T) {
	t.Helper()
	t.Setenv("NEWSDATA_API_KEY", "news-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
}

func TestDefaultValidatesWithoutWarningsWhenKeysSet(t *testing.T) {
	setKeys(t)
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateWarnsOnMissingKeys(t *testing.T) {
	t.Setenv("NEWSDATA_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "NEWSDATA_API_KEY")
	require.Contains(t, warnings[1].Message, "GEMINI_API_KEY")
}

func TestParseOverlaysJSONC(t *testing.T) {
	setKeys(t)
	content := `
{
  // news source
  "news": {
    "base_url": "http://127.0.0.1:8080/api/1/",
    "topic_size": 4, /* more headlines */
  },
  "interests": ["space", "Technology", "SPACE", "gardening"],
  "triggers": "hey echo, echo",
  "qa": { "provider": "openai", "model": "gpt-4o" },
  "listener": { "quiet_period_ms": 500, "voice_ratio": 0.4 },
  "narration": { "preempt": false, "player_cmd": "pw-play --rate 24000 -" },
  "indicator": { "text_trigger": "Heard you" },
  "debug": { "audio_dump": true },
}
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:8080/api/1/", cfg.News.BaseURL)
	require.Equal(t, 4, cfg.News.TopicSize)
	require.Equal(t, 5, cfg.News.LatestSize)
	require.Equal(t, []string{"Space", "Technology"}, cfg.Interests)
	require.Equal(t, []string{"hey echo", "echo"}, cfg.Triggers)
	require.Equal(t, "openai", cfg.QA.Provider)
	require.Equal(t, "gpt-4o", cfg.QA.Model)
	require.Equal(t, 500, cfg.Listener.QuietPeriodMS)
	require.InDelta(t, 0.4, cfg.Listener.VoiceRatio, 1e-9)
	require.False(t, cfg.Narration.Preempt)
	require.Equal(t, []string{"pw-play", "--rate", "24000", "-"}, cfg.Narration.PlayerCmd.Argv)
	require.Equal(t, "Heard you", cfg.Indicator.TextTrigger)
	require.True(t, cfg.Debug.EnableAudioDump)

	messages := make([]string, 0, len(warnings))
	for _, w := range warnings {
		messages = append(messages, w.Message)
	}
	joined := strings.Join(messages, "\n")
	require.Contains(t, joined, `unknown topic "gardening"`)
	require.Contains(t, joined, "narration.preempt=false")
}

func TestParseDoesNotMutateBase(t *testing.T) {
	setKeys(t)
	base := Default()
	_, _, err := Parse(`{"triggers": ["echo"]}`, base)
	require.NoError(t, err)
	require.Equal(t, Default().Triggers, base.Triggers)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	setKeys(t)
	cfg, _, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	setKeys(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown field", content: `{"riva": {}}`, wantErr: "unknown field"},
		{name: "syntax error position", content: "{\n  \"news\": {\n    \"topic_size\": 3 4\n  }\n}", wantErr: "line 3"},
		{name: "type error", content: `{"news": {"topic_size": "three"}}`, wantErr: "line 1"},
		{name: "multiple values", content: `{} {}`, wantErr: "multiple JSON values"},
		{name: "too many interests", content: `{"interests": ["Technology","Business","Science","Health","Sports","Space"]}`, wantErr: "at most 5"},
		{name: "bad provider", content: `{"qa": {"provider": "llama"}}`, wantErr: "unknown qa provider"},
		{name: "bad url", content: `{"news": {"base_url": "ftp://example.com"}}`, wantErr: "http or https"},
		{name: "page size", content: `{"news": {"latest_size": 0}}`, wantErr: "news.latest_size"},
		{name: "no triggers", content: `{"triggers": []}`, wantErr: "at least one phrase"},
		{name: "phrase window", content: `{"listener": {"max_phrase_ms": 300, "quiet_period_ms": 300}}`, wantErr: "must exceed"},
		{name: "voice ratio", content: `{"listener": {"voice_ratio": 1.5}}`, wantErr: "voice_ratio"},
		{name: "bad player cmd", content: `{"narration": {"player_cmd": "play \"oops"}}`, wantErr: "narration.player_cmd"},
		{name: "unterminated comment", content: `{ /* nope `, wantErr: "unterminated block comment"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.content, Default())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNormalizeJSONC(t *testing.T) {
	input := `{
  // comment
  "items": ["one", /* block */ "two", ],
  "url": "http://example.com/*not a comment*/",
  "nested": { "ok": true, // trailing
  },
}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "http://example.com/*not a comment*/")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalized), &payload))
	require.Equal(t, []any{"one", "two"}, payload["items"])
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	cases := []struct {
		offset int64
		line   int
		col    int
	}{
		{offset: 0, line: 1, col: 1},
		{offset: 1, line: 1, col: 1},
		{offset: 3, line: 1, col: 3},
		{offset: 8, line: 2, col: 2},
		{offset: 999, line: 3, col: 5},
	}
	for _, c := range cases {
		line, col := offsetToLineCol(content, c.offset)
		require.Equal(t, c.line, line, "offset %d", c.offset)
		require.Equal(t, c.col, col, "offset %d", c.offset)
	}
}

func TestResolvePathPrecedence(t *testing.T) {
	resolved, err := ResolvePath("/tmp/custom.jsonc")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.jsonc", resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "echonews", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "echonews", "config.jsonc"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	setKeys(t)
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[len(loaded.Warnings)-1].Message, "not found")
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	t.Setenv("NEWSDATA_API_KEY", "")
	require.NoError(t, os.Unsetenv("NEWSDATA_API_KEY"))
	t.Setenv("GEMINI_API_KEY", "already-set")
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"news": {"language": "de"}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NEWSDATA_API_KEY=from-dotenv\nGEMINI_API_KEY=ignored\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "de", loaded.Config.News.Language)
	require.Equal(t, "from-dotenv", Secret("NEWSDATA_API_KEY"))
	require.Equal(t, "already-set", Secret("GEMINI_API_KEY"))
	require.Empty(t, loaded.Warnings)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"bogus": 1}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}

func TestQAKeyEnv(t *testing.T) {
	cfg := Default()
	require.Equal(t, "GEMINI_API_KEY", cfg.QAKeyEnv())

	cfg.QA.Provider = "anthropic"
	require.Equal(t, "ANTHROPIC_API_KEY", cfg.QAKeyEnv())

	cfg.QA.APIKeyEnv = "MY_KEY"
	require.Equal(t, "MY_KEY", cfg.QAKeyEnv())

	cfg.QA.APIKeyEnv = ""
	cfg.QA.Provider = "none"
	require.Empty(t, cfg.QAKeyEnv())
}

func TestSecretTrimsAndHandlesBlankName(t *testing.T) {
	t.Setenv("ECHONEWS_TEST_SECRET", "  abc \n")
	require.Equal(t, "abc", Secret("ECHONEWS_TEST_SECRET"))
	require.Empty(t, Secret(" "))
}
