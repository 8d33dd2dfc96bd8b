// Package sensor checks for and queries the external sensor-reporting tool.
package sensor

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ponytojas/go-tempcheck/internal/logging"
)

// Result is the outcome of one sensor query. Value is meaningful only when
// Found is true. Err carries the cause of a failed invocation or of a
// labelled line that could not be parsed; a missing label leaves it nil.
type Result struct {
	Value string
	Found bool
	Err   error
}

// Runner executes a command and returns what it wrote to stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Reader queries the sensor tool once per Read.
type Reader struct {
	Command string
	Args    []string
	Label   string
	// Timeout bounds the subprocess; zero waits until it exits.
	Timeout time.Duration
	Runner  Runner
	Log     *logrus.Logger
}

// Read runs the sensor command and parses its output. It never returns an
// error: every failure resolves to a Result with Found unset.
func (r *Reader) Read(ctx context.Context) Result {
	log := r.Log
	if log == nil {
		log = logging.Discard()
	}
	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmdline := strings.Join(append([]string{r.Command}, r.Args...), " ")
	log.WithField("command", cmdline).Debug("Launching sensor command...")

	out, stderr, err := runner.Run(ctx, r.Command, r.Args...)
	stderrText := strings.TrimSpace(string(stderr))
	if err != nil {
		cause := errors.Wrapf(err, "run %q", cmdline)
		entry := log.WithError(cause).WithFields(logrus.Fields{
			"stack":  logging.StackField(cause),
			"stderr": stderrText,
		})

		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			entry.WithField("exit_code", exitErr.ExitCode()).Error("Subprocess call failed.")
		} else {
			entry.Error("An unknown error occurred.")
		}
		return Result{Err: cause}
	}
	if stderrText != "" {
		log.WithField("stderr", stderrText).Debug("Sensor command wrote to stderr.")
	}

	log.Debug("Parsing sensor output.")
	value, ok, err := ParseTemperature(string(out), r.Label)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"label": r.Label,
			"stack": logging.StackField(err),
		}).Error("Unparsable CPU temperature line in sensor output.")
		return Result{Err: err}
	}
	if !ok {
		log.WithField("label", r.Label).Warn("CPU temperature not found in sensor output.")
		return Result{}
	}

	log.Infof("CPU temperature: %s C", value)
	return Result{Value: value, Found: true}
}
