package sensor

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedLine reports a line that carries the label but no reading.
var ErrMalformedLine = errors.New("labelled line has no reading")

// ParseTemperature extracts the reading from the sensor tool's output.
//
// The first line containing label is split on its first colon; the text after
// it is trimmed and cut at the first space. Any unit glued to the number
// ("55.0°C") is dropped. A missing label reports false with a nil error. A
// labelled line without a colon, or whose token does not start with a
// number, reports an error wrapping ErrMalformedLine.
func ParseTemperature(output, label string) (string, bool, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, label) {
			continue
		}

		_, rest, ok := strings.Cut(line, ":")
		if !ok {
			return "", false, errors.Wrapf(ErrMalformedLine, "no colon in %q", strings.TrimSpace(line))
		}
		token, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
		value := numericPrefix(token)
		if value == "" {
			return "", false, errors.Wrapf(ErrMalformedLine, "no number in %q", strings.TrimSpace(line))
		}
		return value, true, nil
	}
	return "", false, nil
}

// numericPrefix returns the leading run of s that can belong to a decimal number.
func numericPrefix(s string) string {
	end := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return trimSign(s[:end])
		}
		end = i + 1
	}
	return trimSign(s[:end])
}

// trimSign rejects a bare sign or dot with no digits.
func trimSign(s string) string {
	if strings.ContainsAny(s, "0123456789") {
		return s
	}
	return ""
}
