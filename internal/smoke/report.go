package smoke

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
)

// Exit codes for the orchestrator process.
const (
	ExitOK    = 0 // every assertion passed
	ExitFail  = 1 // at least one non-fatal assertion failed
	ExitFatal = 2 // unreachable service or fixture failure; scenario aborted
)

// Step records the outcome of a single assertion.
type Step struct {
	Phase    string
	Name     string
	Expected string
	Observed string
	Passed   bool
}

// Report collects assertion outcomes across the scenario and computes the
// final exit code.
type Report struct {
	steps    []Step
	fatalErr error
	logger   *slog.Logger
}

// NewReport creates an empty report.
func NewReport(logger *slog.Logger) *Report {
	return &Report{logger: logger}
}

// Assert records a named assertion. Failures are logged at record time so
// they are visible inline, not only in the summary.
func (r *Report) Assert(phase, name string, ok bool, expected, observed string) bool {
	r.steps = append(r.steps, Step{
		Phase:    phase,
		Name:     name,
		Expected: expected,
		Observed: observed,
		Passed:   ok,
	})

	if ok {
		r.logger.Debug("assertion passed",
			slog.String("phase", phase),
			slog.String("step", name),
		)
	} else {
		r.logger.Error("assertion failed",
			slog.String("phase", phase),
			slog.String("step", name),
			slog.String("expected", expected),
			slog.String("observed", observed),
		)
	}

	return ok
}

// Equal records an assertion that observed equals expected.
func (r *Report) Equal(phase, name string, expected, observed any) bool {
	return r.Assert(phase, name, fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", observed),
		fmt.Sprintf("%v", expected), fmt.Sprintf("%v", observed))
}

// Status records an assertion about an HTTP status code.
func (r *Report) Status(phase, name string, expected, observed int) bool {
	return r.Assert(phase, name, expected == observed,
		fmt.Sprintf("status %d", expected), fmt.Sprintf("status %d", observed))
}

// Fatal records a fatal precondition failure. The scenario stops after the
// first fatal error.
func (r *Report) Fatal(err error) {
	if r.fatalErr == nil {
		r.fatalErr = err
	}
	r.logger.Error("fatal precondition failed", slog.String("error", err.Error()))
}

// FatalErr returns the recorded fatal error, if any.
func (r *Report) FatalErr() error {
	return r.fatalErr
}

// Failed returns the number of failed assertions.
func (r *Report) Failed() int {
	failed := 0
	for _, s := range r.steps {
		if !s.Passed {
			failed++
		}
	}
	return failed
}

// ExitCode maps the recorded outcomes to the process exit code.
func (r *Report) ExitCode() int {
	if r.fatalErr != nil {
		return ExitFatal
	}
	if r.Failed() > 0 {
		return ExitFail
	}
	return ExitOK
}

// Summary writes a tabular report of every step and a final verdict.
func (r *Report) Summary(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "RESULT\tPHASE\tSTEP\tEXPECTED\tOBSERVED")
	for _, s := range r.steps {
		result := "PASS"
		if !s.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", result, s.Phase, s.Name, s.Expected, s.Observed)
	}
	tw.Flush()

	total := len(r.steps)
	failed := r.Failed()
	switch {
	case r.fatalErr != nil:
		fmt.Fprintf(w, "\nFATAL: %v (%d assertions ran before abort)\n", r.fatalErr, total)
	case failed > 0:
		fmt.Fprintf(w, "\nFAILED: %d of %d assertions failed\n", failed, total)
	default:
		fmt.Fprintf(w, "\nPASSED: all %d assertions passed\n", total)
	}
}
