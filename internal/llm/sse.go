package llm

import (
	"bufio"
	"io"
	"strings"
)

// sseScanner reads Server-Sent Events, yielding one data payload per Scan.
// Comment lines and non-data fields are skipped.
type sseScanner struct {
	scanner *bufio.Scanner
	data    string
}

func newSSEScanner(r io.Reader) *sseScanner {
	s := bufio.NewScanner(r)
	// Streamed chunks can carry whole JSON objects on one line.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseScanner{scanner: s}
}

// Scan advances to the next data payload.
func (s *sseScanner) Scan() bool {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			s.data = strings.TrimSpace(payload)
			if s.data == "" || s.data == "[DONE]" {
				continue
			}
			return true
		}
	}
	return false
}

// Data returns the last scanned payload.
func (s *sseScanner) Data() string {
	return s.data
}
