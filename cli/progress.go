package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(w io.Writer, text string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(w io.Writer, text string) (progressSpinner, error) {
	spinner, err := pterm.DefaultSpinner.
		WithWriter(w).
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return nil, err
	}
	return spinner, nil
}

// step is one stage of a command, e.g: decoding or rendering.
type step struct {
	id        string
	message   string
	done      bool
	failed    bool
	startTime time.Time
}

// progress shows a spinner per running step. Only one step runs at a time.
type progress struct {
	mu       sync.Mutex
	out      io.Writer
	steps    map[string]*step
	current  progressSpinner
	factory  progressSpinnerFactory
	disabled bool
}

// newProgress registers the steps as id, message pairs. Output is only drawn on a terminal
// stdout.
func newProgress(out io.Writer, steps ...string) *progress {
	prog := &progress{
		out:      out,
		steps:    make(map[string]*step, len(steps)/2),
		factory:  defaultSpinnerFactory,
		disabled: out != os.Stdout,
	}
	for idx := 0; idx+1 < len(steps); idx += 2 {
		prog.steps[steps[idx]] = &step{id: steps[idx], message: steps[idx+1]}
	}
	return prog
}

func (prog *progress) lookup(id string) (*step, error) {
	st, ok := prog.steps[id]
	if !ok {
		return nil, errors.Errorf("step %q not found", id)
	}
	return st, nil
}

// Start stops the running spinner, if any, and starts one for `id`.
func (prog *progress) Start(id string) error {
	prog.mu.Lock()
	defer prog.mu.Unlock()

	st, err := prog.lookup(id)
	if err != nil {
		return err
	}
	st.startTime = time.Now()
	if prog.disabled {
		return nil
	}

	if prog.current != nil {
		//nolint:errcheck
		_ = prog.current.Stop()
	}
	spinner, err := prog.factory(prog.out, st.message)
	if err != nil {
		return errors.Wrap(err, "failed to start spinner")
	}
	prog.current = spinner
	return nil
}

// Complete marks `id` done, replacing its message with `message` when not empty.
func (prog *progress) Complete(id, message string) error {
	prog.mu.Lock()
	defer prog.mu.Unlock()

	st, err := prog.lookup(id)
	if err != nil {
		return err
	}
	st.done = true
	if message == "" {
		message = st.message
	}
	if !st.startTime.IsZero() {
		message += fmt.Sprintf(" (%s)", time.Since(st.startTime).Round(time.Millisecond))
	}
	if prog.disabled {
		return nil
	}

	if prog.current != nil {
		prog.current.Success(message)
		prog.current = nil
		return nil
	}
	successf(prog.out, "%s", message)
	return nil
}

// Fail marks `id` failed.
func (prog *progress) Fail(id string, cause error) error {
	prog.mu.Lock()
	defer prog.mu.Unlock()

	st, err := prog.lookup(id)
	if err != nil {
		return err
	}
	st.failed = true
	if prog.disabled {
		return nil
	}

	message := fmt.Sprintf("%s: %v", st.message, cause)
	if prog.current != nil {
		prog.current.Fail(message)
		prog.current = nil
		return nil
	}
	pterm.Error.WithWriter(prog.out).Println(message)
	return nil
}

// Stop stops the running spinner, if any.
func (prog *progress) Stop() {
	prog.mu.Lock()
	defer prog.mu.Unlock()

	if prog.current != nil {
		//nolint:errcheck
		_ = prog.current.Stop()
		prog.current = nil
	}
}
