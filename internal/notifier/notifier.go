// Package notifier reports the outcome of an export submission to the
// operator. Every submission ends in exactly one State, and every State has
// exactly one message template.
package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cxfeedback/internal/feedback"
)

// State is the terminal state of a submission.
type State string

const (
	StateValidation State = "validation"
	StateSchema     State = "schema"
	StateEmpty      State = "empty"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
)

// Outcome is what the operator is told about one submission.
type Outcome struct {
	SubmissionID string
	State        State
	Criteria     feedback.Criteria
	Count        int
	Delivered    []string
	Failed       []string
	Diagnostics  feedback.Diagnostics

	// Problems lists invalid inputs for StateValidation and missing column
	// names for StateSchema.
	Problems []string
	// Incomplete marks a validation outcome where a required input was left
	// empty, as opposed to one that was filled in wrongly.
	Incomplete bool

	// Err is the cause of a validation, schema or failure state. It is
	// logged, never shown.
	Err error
}

const defaultProblem = "start date, end date and call center are required"

// Message returns the operator-facing text for the outcome.
func (o Outcome) Message() string {
	switch o.State {
	case StateValidation:
		if len(o.Problems) == 0 {
			return fmt.Sprintf("Please fill in all fields: %s.", defaultProblem)
		}
		problems := strings.Join(o.Problems, "; ")
		if o.Incomplete {
			return fmt.Sprintf("Please fill in all fields: %s.", problems)
		}
		return fmt.Sprintf("Please correct the form: %s.", problems)
	case StateSchema:
		missing := "date or call center"
		if len(o.Problems) > 0 {
			missing = strings.Join(o.Problems, " or ")
		}
		return fmt.Sprintf("The feedback sheet has no %s column, so nothing was exported.", missing)
	case StateEmpty:
		msg := fmt.Sprintf("No feedback found for %s from %s to %s.",
			o.Criteria.Center, o.Criteria.Start, o.Criteria.End)
		if n := o.Diagnostics.Unreadable(); n > 0 {
			msg += fmt.Sprintf(" %d %s skipped because the date or call center could not be read.", n, plural(n, "row was", "rows were"))
		}
		return msg
	case StateSuccess:
		msg := fmt.Sprintf("Exported %d feedback %s for %s", o.Count, plural(o.Count, "row", "rows"), o.Criteria.Center)
		if len(o.Delivered) > 0 {
			msg += " to " + strings.Join(o.Delivered, ", ")
		}
		msg += "."
		if len(o.Failed) > 0 {
			msg += " Could not produce: " + strings.Join(o.Failed, ", ") + "."
		}
		return msg
	case StateFailure:
		return "Could not load feedback. Please try again later."
	default:
		return string(o.State)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Notifier receives the outcome of every submission.
type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

// StartNotifier is implemented by notifiers that also show a loading state
// while a submission runs.
type StartNotifier interface {
	Started(ctx context.Context, submissionID string, c feedback.Criteria)
}

// Multi fans out to every notifier in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, o Outcome) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, o)
		}
	}
}

// Started implements StartNotifier for the members that support it.
func (m Multi) Started(ctx context.Context, submissionID string, c feedback.Criteria) {
	for _, n := range m {
		if s, ok := n.(StartNotifier); ok {
			s.Started(ctx, submissionID, c)
		}
	}
}

// LogNotifier writes outcomes to a structured log. Failure causes are
// logged at error level with the full error.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, o Outcome) {
	attrs := []slog.Attr{
		slog.String("submission_id", o.SubmissionID),
		slog.String("state", string(o.State)),
		slog.String("center", o.Criteria.Center),
		slog.String("start", o.Criteria.Start.String()),
		slog.String("end", o.Criteria.End.String()),
		slog.Int("count", o.Count),
		slog.Int("examined", o.Diagnostics.Examined),
		slog.Int("skipped_unreadable", o.Diagnostics.Unreadable()),
	}
	if len(o.Delivered) > 0 {
		attrs = append(attrs, slog.Any("delivered", o.Delivered))
	}
	if len(o.Failed) > 0 {
		attrs = append(attrs, slog.Any("failed", o.Failed))
	}
	if o.Err != nil {
		attrs = append(attrs, slog.String("error", o.Err.Error()))
	}

	level := slog.LevelInfo
	switch o.State {
	case StateValidation, StateSchema:
		level = slog.LevelWarn
	case StateFailure:
		level = slog.LevelError
	}
	n.logger.LogAttrs(ctx, level, o.Message(), attrs...)
}

// Started implements StartNotifier.
func (n *LogNotifier) Started(ctx context.Context, submissionID string, c feedback.Criteria) {
	n.logger.DebugContext(ctx, "loading feedback",
		slog.String("submission_id", submissionID),
		slog.String("center", c.Center),
	)
}

// WriterNotifier prints the message line for each outcome, for terminals.
type WriterNotifier struct {
	W io.Writer

	// Verbose adds the row diagnostics below the message.
	Verbose bool

	mu sync.Mutex
}

// Notify implements Notifier.
func (n *WriterNotifier) Notify(_ context.Context, o Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintln(n.W, o.Message())
	if n.Verbose && o.Diagnostics.Examined > 0 {
		d := o.Diagnostics
		fmt.Fprintf(n.W, "  examined %d, matched %d, out of range %d, other center %d, unreadable date %d, missing center %d\n",
			d.Examined, d.Matched, d.OutOfRange, d.CenterMismatch, d.UnparseableDate, d.MissingCenter)
	}
}

// Started implements StartNotifier.
func (n *WriterNotifier) Started(context.Context, string, feedback.Criteria) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.W, "Loading feedback...")
}
