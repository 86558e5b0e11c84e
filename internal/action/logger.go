package action

import (
	"fmt"
	"io"

	"github.com/sethvargo/go-githubactions"
)

// Logger writes user-facing messages at the levels the Actions runner
// understands.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Notice(msg string)
	Warning(msg string)
	Error(msg string)
}

// WorkflowLogger emits GitHub workflow commands. Info lines are written
// unchanged.
type WorkflowLogger struct {
	action *githubactions.Action
}

// NewWorkflowLogger creates a logger writing to out, usually os.Stdout.
func NewWorkflowLogger(out io.Writer) *WorkflowLogger {
	return &WorkflowLogger{action: newAction(func(string) string { return "" }, out)}
}

func (l *WorkflowLogger) Debug(msg string)   { l.action.Debugf("%s", msg) }
func (l *WorkflowLogger) Info(msg string)    { l.action.Infof("%s", msg) }
func (l *WorkflowLogger) Notice(msg string)  { l.action.Noticef("%s", msg) }
func (l *WorkflowLogger) Warning(msg string) { l.action.Warningf("%s", msg) }
func (l *WorkflowLogger) Error(msg string)   { l.action.Errorf("%s", msg) }

// TextLogger writes leveled plain-text lines, for runs outside Actions.
type TextLogger struct {
	out     io.Writer
	verbose bool
}

// NewTextLogger creates a TextLogger. Debug lines are dropped unless
// verbose is set.
func NewTextLogger(out io.Writer, verbose bool) *TextLogger {
	return &TextLogger{out: out, verbose: verbose}
}

func (l *TextLogger) Debug(msg string) {
	if l.verbose {
		fmt.Fprintf(l.out, "debug: %s\n", msg)
	}
}

func (l *TextLogger) Info(msg string)    { fmt.Fprintln(l.out, msg) }
func (l *TextLogger) Notice(msg string)  { fmt.Fprintf(l.out, "notice: %s\n", msg) }
func (l *TextLogger) Warning(msg string) { fmt.Fprintf(l.out, "warning: %s\n", msg) }
func (l *TextLogger) Error(msg string)   { fmt.Fprintf(l.out, "error: %s\n", msg) }

// Fail reports err as the run's failure.
func Fail(log Logger, err error) {
	log.Error(err.Error())
}
