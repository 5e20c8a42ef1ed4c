// Package compiler turns .bard story sources into compiled documents.
//
// Compilation is line oriented: includes are expanded first, then imports
// and @metadata are lifted out, then every line is classified by prefix and
// control blocks (@if, @for, @py and their <<...>> spellings) are extracted
// recursively into content nodes.
package compiler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
)

type options struct {
	path     string
	logger   *slog.Logger
	readFile ReadFileFunc
}

// Option configures a compilation.
type Option func(*options)

// WithPath names the source so includes resolve relative to it and errors
// carry the file name.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithReadFile replaces the function used to read included files.
func WithReadFile(fn ReadFileFunc) Option {
	return func(o *options) { o.readFile = fn }
}

func buildOptions(opts []Option) *options {
	o := &options{logger: logging.NewNop(), readFile: os.ReadFile}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compile compiles source text.
func Compile(source string, opts ...Option) (*domain.Document, error) {
	o := buildOptions(opts)
	lines, locs, err := expandIncludes(source, o.path, o.readFile, nil)
	if err != nil {
		return nil, err
	}
	return newParser(o.path, lines, locs, o.logger).parse()
}

// CompileFile reads and compiles the file at path.
func CompileFile(path string, opts ...Option) (*domain.Document, error) {
	o := buildOptions(opts)
	data, err := o.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	return Compile(string(data), append(opts, WithPath(path))...)
}

// Marshal encodes a document as indented JSON.
func Marshal(doc *domain.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
