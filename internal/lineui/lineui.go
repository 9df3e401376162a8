// Package lineui runs the chat over plain lines of text, for pipes and
// terminals without full-screen support.
package lineui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"samarth-chat/internal/chat"
	"samarth-chat/internal/models"
	"samarth-chat/internal/transcript"
)

const exitCommand = "exit"

var (
	userPrefix  = color.New(color.FgCyan, color.Bold)
	botPrefix   = color.New(color.FgGreen, color.Bold)
	errorPrefix = color.New(color.FgRed, color.Bold)
)

// printer writes entries as prefixed lines.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) Append(role models.Role, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text = transcript.PlainText(text)
	switch role {
	case models.RoleUser:
		userPrefix.Fprint(p.out, "You: ")
	case models.RoleError:
		errorPrefix.Fprintln(p.out, text)
		return
	default:
		botPrefix.Fprint(p.out, "Bot: ")
	}
	fmt.Fprintln(p.out, text)
}

// ScrollToEnd is a no-op: every line is already written at the bottom.
func (p *printer) ScrollToEnd() {}

type Options struct {
	Ordering chat.Ordering
	Logger   *zap.Logger
}

// Run reads one question per line from in and answers them on out. Each
// question runs as its own cycle, so a slow answer does not block the
// next line. It returns after "exit" or end of input, once every
// outstanding answer has been printed.
func Run(ctx context.Context, in io.Reader, out io.Writer, asker chat.Asker, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	field := &chat.Field{}
	h := chat.NewHandler(field, &printer{out: out}, asker,
		chat.WithOrdering(opts.Ordering),
		chat.WithLogger(opts.Logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == exitCommand {
			break
		}
		if ctx.Err() != nil {
			break
		}

		field.Set(line)
		p, ok := h.Accept()
		if !ok {
			continue
		}
		g.Go(func() error {
			h.Complete(gctx, p)
			return nil
		})
	}

	scanErr := scanner.Err()
	if err := g.Wait(); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("failed to read input: %w", scanErr)
	}
	return nil
}
