// Package output renders command results for terminals, pipes and machines.
//
// A Renderer picks one of three concrete modes. Text is styled with lipgloss
// for interactive terminals, markdown is used when output is piped, and JSON
// is for scripts. ModeAuto resolves to text or markdown from the TTY state.
package output

import (
	"fmt"
	"strings"
)

// OutputMode selects how results are written.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists every accepted mode, in flag completion order.
var Modes = []OutputMode{ModeAuto, ModeText, ModeMarkdown, ModeJSON}

// Mode converts a config value to an OutputMode. Unknown values fall back to auto.
func Mode(s string) OutputMode {
	m, err := ParseMode(s)
	if err != nil {
		return ModeAuto
	}
	return m
}

// ParseMode parses a mode name. "md" is accepted for markdown and an empty
// string means auto.
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	case "json":
		return ModeJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", s)
}
