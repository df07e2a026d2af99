// Package dotenv reads KEY=VALUE credential files.
//
// The format is the common dotenv dialect: one assignment per line,
// blank lines and #-comments ignored, optional "export " prefix, and
// optional matching single or double quotes around the value. Parsed
// values are returned to the caller; the process environment is never
// modified.
package dotenv

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Read parses the file at path and returns its assignments.
//
// Returns the underlying *os.PathError if the file cannot be opened, so
// callers can distinguish a missing file with errors.Is(err, fs.ErrNotExist).
func Read(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	vars := make(map[string]string)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: missing '=' in %q", path, lineNo, line)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%s:%d: empty key", path, lineNo)
		}

		vars[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return vars, nil
}

// unquote strips one pair of matching single or double quotes, if present.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
