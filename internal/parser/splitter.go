package parser

import "strings"

// LineSplitter turns a stream of arbitrary chunks into complete lines. A
// trailing partial line is held back until the next chunk or Flush.
type LineSplitter struct {
	pending strings.Builder
}

// Write consumes a chunk and returns the complete, trimmed, non-empty lines it closed
func (s *LineSplitter) Write(chunk []byte) []string {
	var lines []string
	for _, b := range chunk {
		if b == '\n' || b == '\r' {
			if line := strings.TrimSpace(s.pending.String()); line != "" {
				lines = append(lines, line)
			}
			s.pending.Reset()
			continue
		}
		s.pending.WriteByte(b)
	}
	return lines
}

// Flush returns the buffered partial line, if any
func (s *LineSplitter) Flush() []string {
	line := strings.TrimSpace(s.pending.String())
	s.pending.Reset()
	if line == "" {
		return nil
	}
	return []string{line}
}
