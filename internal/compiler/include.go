package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ReadFileFunc loads an included file.
type ReadFileFunc func(path string) ([]byte, error)

// expandIncludes replaces every "@include path" line with the lines of the
// referenced file, recursively, resolving paths relative to the including
// file. It returns the expanded lines and, for each, its origin.
//
// seen is copied per branch so sibling includes of the same file do not count
// as a cycle.
func expandIncludes(source, path string, read ReadFileFunc, seen map[string]bool) ([]string, []Location, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	if seen[key] {
		return nil, nil, fmt.Errorf("%w: %s", ErrIncludeCycle, path)
	}
	branch := make(map[string]bool, len(seen)+1)
	for k := range seen {
		branch[k] = true
	}
	branch[key] = true

	src := splitLines(source)
	var (
		lines []string
		locs  []Location
	)
	for i, raw := range src {
		s := strings.TrimSpace(raw)
		if !strings.HasPrefix(s, "@include ") {
			lines = append(lines, raw)
			locs = append(locs, Location{File: path, Line: i + 1})
			continue
		}

		target, _ := stripInlineComment(strings.TrimSpace(s[len("@include "):]))
		target = strings.TrimSpace(target)
		full := filepath.Join(filepath.Dir(path), target)

		data, err := read(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil, includeError(src, path, i, ErrIncludeNotFound,
					fmt.Sprintf("Include file not found: %s", target),
					fmt.Sprintf("Looked for %s relative to %s.", full, path))
			}
			return nil, nil, includeError(src, path, i, err, fmt.Sprintf("Cannot read include %s: %v", target, err), "")
		}

		sub, subLocs, err := expandIncludes(string(data), full, read, branch)
		if err != nil {
			if errors.Is(err, ErrIncludeCycle) {
				var ce *Error
				if errors.As(err, &ce) {
					return nil, nil, err
				}
				return nil, nil, includeError(src, path, i, ErrIncludeCycle,
					fmt.Sprintf("Circular include detected: %s", full),
					"A file cannot include itself, directly or through other includes.")
			}
			return nil, nil, err
		}
		lines = append(lines, sub...)
		locs = append(locs, subLocs...)
	}
	return lines, locs, nil
}

func includeError(src []string, file string, idx int, cause error, msg, hint string) *Error {
	return &Error{
		Kind:    KindInclude,
		File:    file,
		Line:    idx + 1,
		Message: msg,
		Hint:    hint,
		Err:     cause,
		Context: contextAround(src, idx, nil),
	}
}

// contextAround returns up to two lines either side of idx. When locs is set
// only lines from the same file are kept and numbered by their origin.
func contextAround(lines []string, idx int, locs []Location) []ContextLine {
	var out []ContextLine
	for j := max(0, idx-2); j < min(len(lines), idx+3); j++ {
		n := j + 1
		if locs != nil {
			if locs[j].File != locs[idx].File {
				continue
			}
			n = locs[j].Line
		}
		out = append(out, ContextLine{Number: n, Text: lines[j]})
	}
	return out
}

func splitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	return strings.Split(source, "\n")
}
