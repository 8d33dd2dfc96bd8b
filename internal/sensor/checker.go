package sensor

import (
	"fmt"
	"io"
	"os/exec"
)

// CheckInstalled reports whether name resolves on PATH. When it does not,
// hint is written to out so the user knows what to install.
func CheckInstalled(name, hint string, out io.Writer) bool {
	if _, err := exec.LookPath(name); err != nil {
		fmt.Fprintln(out, hint)
		return false
	}
	return true
}
