package indicator

import (
	"strings"

	"github.com/rbright/echonews/internal/config"
)

type messages struct {
	listening string
	trigger   string
	narrating string
	resume    string
	errorText string
}

var defaultMessages = messages{
	listening: "Listening… say \"echo\" to interrupt",
	trigger:   "Heard you",
	narrating: "Narrating",
	resume:    "Resuming where we left off",
	errorText: "Something went wrong",
}

// messagesFor applies the configured text overrides to the defaults.
func messagesFor(cfg config.IndicatorConfig) messages {
	msg := defaultMessages
	override(&msg.listening, cfg.TextListening)
	override(&msg.trigger, cfg.TextTrigger)
	override(&msg.resume, cfg.TextResume)
	override(&msg.errorText, cfg.TextError)
	return msg
}

func override(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
