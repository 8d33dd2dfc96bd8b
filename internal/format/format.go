// Package format renders a temperature reading for the console.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects how a reading is rendered.
type Format string

const (
	Plain   Format = "plain"
	Verbose Format = "verbose"
	JSON    Format = "json"
)

// Unavailable is printed whenever no reading could be obtained, whatever the format.
const Unavailable = "Error: Could not retrieve CPU temperature."

// JSONKey is the single key of the json rendering.
const JSONKey = "CPU Temperature (°C)"

// Formats lists the accepted selectors in help order.
var Formats = []Format{Plain, Verbose, JSON}

// Parse validates s as a format selector.
func Parse(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: must be one of %s", s, strings.Join(names(), ", "))
}

func names() []string {
	out := make([]string, len(Formats))
	for i, f := range Formats {
		out[i] = string(f)
	}
	return out
}

// String implements pflag.Value.
func (f *Format) String() string {
	if *f == "" {
		return string(Plain)
	}
	return string(*f)
}

// Set implements pflag.Value, rejecting unknown selectors during flag parsing.
func (f *Format) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// Render maps an optional reading to its display string. found=false always
// yields Unavailable. An unrecognised selector renders as Plain.
func Render(value string, found bool, f Format) string {
	if !found {
		return Unavailable
	}

	switch f {
	case JSON:
		return renderJSON(value)
	case Verbose:
		return fmt.Sprintf("The current CPU temperature is %s degrees Celsius.", value)
	default:
		return value + "°C"
	}
}

// renderJSON emits {"<key>": "<value>"} with a space after the colon and
// non-ASCII characters left as-is.
func renderJSON(value string) string {
	return "{" + quote(JSONKey) + ": " + quote(value) + "}"
}

func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
