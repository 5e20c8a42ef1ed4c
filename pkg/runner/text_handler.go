package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/bardic/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Format   ChoiceFormatter

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithChoiceFormatter configures how numbered choices are printed.
func WithChoiceFormatter(f ChoiceFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Format = f
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Format: func(n int, text string) string { return fmt.Sprintf("  %d) %s", n, text) },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the goroutine that feeds lines to Input, so a blocked
// read never prevents Input from honouring ctx.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, out *domain.Output) error {
	if out.Content != "" {
		text := out.Content
		if h.Renderer != nil {
			if rendered, err := h.Renderer(text); err == nil {
				text = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimRight(text, "\n"))
	}
	for _, d := range out.RenderDirectives {
		switch {
		case d.Error != "":
			fmt.Fprintf(h.Writer, "[%s: %s]\n", d.Name, d.Error)
		case d.Mode == domain.RenderModeRaw:
			fmt.Fprintf(h.Writer, "[%s(%s)]\n", d.Name, d.RawArgs)
		default:
			fmt.Fprintf(h.Writer, "[%s %v]\n", d.Name, d.Data)
		}
	}

	fmt.Fprintln(h.Writer)
	if len(out.Choices) == 0 {
		fmt.Fprintln(h.Writer, "THE END")
		return nil
	}
	for i, c := range out.Choices {
		fmt.Fprintln(h.Writer, h.Format(i+1, c.Text))
	}
	return nil
}

func (h *TextHandler) readLine(ctx context.Context, prompt string) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	return h.readLine(ctx, "> ")
}

func (h *TextHandler) Prompt(ctx context.Context, req domain.InputRequest) (string, error) {
	prompt := req.Label
	if req.Placeholder != "" {
		prompt += " (" + req.Placeholder + ")"
	}
	return h.readLine(ctx, prompt+": ")
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
