package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// CommandClipboard pipes the payload into a system clipboard command such
// as wl-copy, xclip or pbcopy. HTML, when set, is the command that stores a
// text/html payload. These tools hold one type per invocation, so a rich
// write stores the table markup alone and reports ModeHTML.
type CommandClipboard struct {
	Text []string
	HTML []string
}

// clipboardCommand is one clipboard tool and, where it has one, its
// text/html form.
type clipboardCommand struct {
	text []string
	html []string
}

// clipboardCommands lists the clipboard commands tried by DetectClipboard,
// in order.
var clipboardCommands = []clipboardCommand{
	{text: []string{"wl-copy"}, html: []string{"wl-copy", "--type", "text/html"}},
	{text: []string{"xclip", "-selection", "clipboard"}, html: []string{"xclip", "-selection", "clipboard", "-t", "text/html"}},
	{text: []string{"xsel", "--clipboard", "--input"}},
	{text: []string{"pbcopy"}},
	{text: []string{"clip.exe"}},
}

var lookPath = exec.LookPath

// DetectClipboard returns a CommandClipboard for the first clipboard command
// on PATH, or ErrClipboardUnavailable. With rich set, tools that can store
// text/html are given their HTML command.
func DetectClipboard(rich bool) (*CommandClipboard, error) {
	for _, cmd := range clipboardCommands {
		if _, err := lookPath(cmd.text[0]); err != nil {
			continue
		}
		c := &CommandClipboard{Text: cmd.text}
		if rich {
			c.HTML = cmd.html
		}
		return c, nil
	}
	return nil, ErrClipboardUnavailable
}

// Name implements ClipboardSink.
func (c *CommandClipboard) Name() string {
	if len(c.Text) == 0 {
		return "system"
	}
	return c.Text[0]
}

// WriteRich implements ClipboardSink. The plain text is not stored.
func (c *CommandClipboard) WriteRich(ctx context.Context, html, _ string) error {
	if len(c.HTML) == 0 {
		return ErrRichUnsupported
	}
	return run(ctx, c.HTML, html)
}

// RichMode reports that a rich write stores HTML only.
func (c *CommandClipboard) RichMode() ClipboardMode { return ModeHTML }

// WriteText implements ClipboardSink.
func (c *CommandClipboard) WriteText(ctx context.Context, text string) error {
	if len(c.Text) == 0 {
		return ErrClipboardUnavailable
	}
	return run(ctx, c.Text, text)
}

func run(ctx context.Context, argv []string, input string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// Console markers around the printed table.
const (
	ConsoleBegin = "----- BEGIN FEEDBACK TABLE (select and copy) -----"
	ConsoleEnd   = "----- END FEEDBACK TABLE -----"
)

// ConsoleClipboard prints the plain-text table between markers so the
// operator can copy it by hand. It is the last resort and never fails
// unless its writer does.
type ConsoleClipboard struct {
	W io.Writer

	mu sync.Mutex
}

// Name implements ClipboardSink.
func (c *ConsoleClipboard) Name() string { return "console" }

// WriteRich implements ClipboardSink.
func (c *ConsoleClipboard) WriteRich(context.Context, string, string) error {
	return ErrRichUnsupported
}

// WriteText implements ClipboardSink.
func (c *ConsoleClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := fmt.Fprintf(c.W, "%s\n%s%s\n", ConsoleBegin, text, ConsoleEnd)
	return err
}
