package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/bardic/internal/dto"
	"github.com/aretw0/bardic/pkg/domain"
)

// JSONHandler implements IOHandler over line-delimited JSON.
//
// Every passage is written as one dto.Passage object and every system
// message as {"system": "..."}. Each input line is either a JSON string or
// an object: {"choice": <0-based index>}, {"command": ":save slot"} or
// {"value": "..."} in answer to a prompt. Anything else is read as plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

type jsonInput struct {
	Choice  *int    `json:"choice"`
	Command string  `json:"command"`
	Value   *string `json:"value"`
}

func (h *JSONHandler) Output(ctx context.Context, out *domain.Output) error {
	return h.Encoder.Encode(dto.FromOutput(out))
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.readLine()
	if err != nil {
		return "", err
	}

	var in jsonInput
	if err := json.Unmarshal([]byte(text), &in); err == nil {
		switch {
		case in.Choice != nil:
			return fmt.Sprintf("%d", *in.Choice+1), nil
		case in.Command != "":
			return SanitizeInput(in.Command)
		case in.Value != nil:
			return SanitizeInput(*in.Value)
		}
	}
	return h.plain(text)
}

func (h *JSONHandler) Prompt(ctx context.Context, req domain.InputRequest) (string, error) {
	if err := h.Encoder.Encode(map[string]any{"prompt": req}); err != nil {
		return "", err
	}
	text, err := h.readLine()
	if err != nil {
		return "", err
	}
	var in jsonInput
	if err := json.Unmarshal([]byte(text), &in); err == nil && in.Value != nil {
		return SanitizeInput(*in.Value)
	}
	return h.plain(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}

func (h *JSONHandler) readLine() (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// plain unquotes a JSON string or returns the raw line.
func (h *JSONHandler) plain(text string) (string, error) {
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return SanitizeInput(val)
	}
	return SanitizeInput(text)
}
