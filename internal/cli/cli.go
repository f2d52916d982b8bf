// Package cli parses the echonews command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandListen     Command = "listen"
	CommandAsk        Command = "ask"
	CommandLatest     Command = "latest"
	CommandTopic      Command = "topic"
	CommandInterests  Command = "interests"
	CommandTopics     Command = "topics"
	CommandPodcast    Command = "podcast"
	CommandQuiz       Command = "quiz"
	CommandBookmark   Command = "bookmark"
	CommandBookmarks  Command = "bookmarks"
	CommandTranscript Command = "transcript"
	CommandStatus     Command = "status"
	CommandSkip       Command = "skip"
	CommandStop       Command = "stop"
	CommandCopy       Command = "copy"
	CommandQuit       Command = "quit"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

type arity int

const (
	noArgs arity = iota
	optionalArgs
	requiredArgs
)

var validCommands = map[Command]arity{
	CommandListen:     noArgs,
	CommandAsk:        requiredArgs,
	CommandLatest:     noArgs,
	CommandTopic:      requiredArgs,
	CommandInterests:  optionalArgs,
	CommandTopics:     noArgs,
	CommandPodcast:    noArgs,
	CommandQuiz:       noArgs,
	CommandBookmark:   noArgs,
	CommandBookmarks:  noArgs,
	CommandTranscript: noArgs,
	CommandStatus:     noArgs,
	CommandSkip:       noArgs,
	CommandStop:       noArgs,
	CommandCopy:       noArgs,
	CommandQuit:       noArgs,
	CommandDevices:    noArgs,
	CommandDoctor:     noArgs,
	CommandVersion:    noArgs,
	CommandHelp:       noArgs,
}

// SessionCommands are served by a running listen session over IPC.
var SessionCommands = map[Command]struct{}{
	CommandAsk:        {},
	CommandLatest:     {},
	CommandTopic:      {},
	CommandInterests:  {},
	CommandPodcast:    {},
	CommandQuiz:       {},
	CommandBookmark:   {},
	CommandBookmarks:  {},
	CommandTranscript: {},
	CommandStatus:     {},
	CommandSkip:       {},
	CommandStop:       {},
	CommandCopy:       {},
	CommandQuit:       {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	NoSpeech   bool
	ShowHelp   bool
}

// Text joins the positional arguments into one query.
func (p Parsed) Text() string {
	return strings.TrimSpace(strings.Join(p.Args, " "))
}

// Parse reads global flags followed by one command and its arguments. Flags
// after the command are treated as arguments.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--no-speech":
			parsed.NoSpeech = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			want, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]
			switch {
			case want == noArgs && len(rest) > 0:
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			case want == requiredArgs && strings.TrimSpace(strings.Join(rest, "")) == "":
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			}
			if len(rest) > 0 {
				parsed.Args = append([]string(nil), rest...)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--no-speech] <command> [args...]

Session:
  listen             Start listening; say "echo" to interrupt with a question
  ask TEXT           Ask a question or look up a topic
  latest             Narrate the latest headlines
  topic NAME         Narrate news about a topic
  interests [NAMES]  Show or set interests ("none" clears them)
  podcast            Narrate today's top headlines only
  quiz               Quiz yourself on the last fetched articles
  bookmark           Bookmark the last narrated article
  bookmarks          List bookmarks
  transcript         Show the conversation so far
  status             Print session state
  skip               Skip the current narration
  stop               Stop narration and discard pending answers
  copy               Copy the last reply to the clipboard
  quit               End the listen session

Other:
  topics             List the interest catalog
  devices            List available input devices
  doctor             Run configuration and environment checks
  version            Print version information
  help               Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/echonews/config.jsonc)
  --no-speech     Print replies without speaking them
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
