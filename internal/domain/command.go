package domain

import "strings"

// Verb identifies a subscription command.
type Verb string

const (
	VerbAdd    Verb = "ADD"
	VerbRemove Verb = "REMOVE"
	VerbList   Verb = "LIST"
)

// Command is one parsed line of an inbound email body.
type Command struct {
	Verb    Verb
	Payload string // free text after the verb, empty for LIST
}

// CityRef names a subscribed location for result reporting.
type CityRef struct {
	City  string
	State string
}

// CommandError records a single failed command without aborting its siblings.
type CommandError struct {
	Command Verb
	Payload string
	Message string
}

// CommandResult accumulates the outcome of one command batch.
// Listed distinguishes "LIST not requested" (nil) from "LIST requested,
// zero subscriptions" (non-nil empty slice).
type CommandResult struct {
	Added   []CityRef
	Removed []CityRef
	Listed  []Subscription
	Errors  []CommandError
}

// Empty reports whether the batch produced nothing actionable: no adds,
// removes, or errors, and LIST was not requested. An empty result suppresses
// the reply entirely.
func (r CommandResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Errors) == 0 && r.Listed == nil
}

// ParseCommands splits an email body into an ordered command list.
// Each non-blank line is split on the first whitespace run into a verb and a
// payload. Lines whose verb is not ADD, REMOVE, or LIST are dropped silently;
// payload validation is deferred to execution.
func ParseCommands(body string) []Command {
	var commands []Command

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		verb := line
		payload := ""
		if idx := strings.IndexAny(line, " \t"); idx >= 0 {
			verb = line[:idx]
			payload = strings.TrimSpace(line[idx+1:])
		}

		switch v := Verb(strings.ToUpper(verb)); v {
		case VerbAdd, VerbRemove, VerbList:
			commands = append(commands, Command{Verb: v, Payload: payload})
		}
	}

	return commands
}
