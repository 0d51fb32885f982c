// Package detector picks the log format from the environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// LogFormat is the rendering mode of the logger.
type LogFormat int

const (
	// FormatPretty writes colored human-readable lines.
	FormatPretty LogFormat = iota
	// FormatJSON writes one JSON object per record.
	FormatJSON
)

// DetectEnvironment returns pretty output when stderr is a terminal and no CI variable is set.
func DetectEnvironment() LogFormat {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return FormatJSON
	}
	return FormatPretty
}

// ResolveFormat applies the user's --log-format flag to the detected format.
// Unknown values fall back to detection.
func ResolveFormat(detected LogFormat, flag string) LogFormat {
	switch flag {
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return detected
	}
}
