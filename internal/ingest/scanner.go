// Package ingest parses the simulator's input files: topology (node
// definitions and their curves/outlets), price, inflow, action, and state
// files. Every format is line-oriented and whitespace-delimited, the same
// shape the original's Line class tokenized by hand with
// extractNextElementFromLine; Go's bufio.Scanner plus strings.Fields
// replaces that tokenizer directly, so every parser here reads one
// meaningful line at a time rather than one token at a time.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// lineReader yields non-empty, non-comment lines (blank lines and lines
// starting with '#' are skipped, matching every original file format) one
// at a time, tracking the 1-based line number of the underlying file for
// error messages.
type lineReader struct {
	scanner *bufio.Scanner
	lineNo  int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

// next returns the next meaningful line's whitespace-split fields, or
// io.EOF when the file is exhausted.
func (lr *lineReader) next() ([]string, error) {
	for lr.scanner.Scan() {
		lr.lineNo++
		line := strings.TrimSpace(lr.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Fields(line), nil
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// field returns fields[i], erroring with line context if i is out of
// range — every format here is fixed-column, so a short line is malformed
// input, not an optional trailing field.
func field(fields []string, i int, lineNo int, context string) (string, error) {
	if i < 0 || i >= len(fields) {
		return "", fmt.Errorf("ingest: %s: line %d: expected at least %d fields, got %d", context, lineNo, i+1, len(fields))
	}
	return fields[i], nil
}
