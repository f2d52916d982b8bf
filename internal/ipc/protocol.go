// Package ipc carries JSON-line requests between CLI invocations and the
// listening session over a unix socket.
package ipc

// Request is one command sent to the listening session.
type Request struct {
	Command string   `json:"command"`
	Text    string   `json:"text,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// Entry is one labelled row of a listing (transcript line, bookmark, topic).
type Entry struct {
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

// Response is the session's reply. Text holds the narrated reply when a
// command produced one.
type Response struct {
	OK      bool    `json:"ok"`
	State   string  `json:"state,omitempty"`
	Message string  `json:"message,omitempty"`
	Text    string  `json:"text,omitempty"`
	Entries []Entry `json:"entries,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Failure builds an error response.
func Failure(state string, err string) Response {
	return Response{OK: false, State: state, Error: err}
}
