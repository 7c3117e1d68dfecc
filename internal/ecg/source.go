// Package ecg provides sample sources for the detector: recorded files and
// a synthetic waveform generator.
package ecg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Source yields one ECG sample per call. Next returns io.EOF when the
// source is exhausted; any other error is fatal to the stream.
type Source interface {
	Next() (int16, error)
}

// FileSource reads whitespace-separated integer samples from a recording.
type FileSource struct {
	f  *os.File
	sc *bufio.Scanner
	n  int // samples read so far, for error context
}

// OpenFile opens a recording for sequential reading.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	return &FileSource{f: f, sc: sc}, nil
}

// Next returns the next sample, or io.EOF at end of file.
func (s *FileSource) Next() (int16, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return 0, fmt.Errorf("read recording: %w", err)
		}
		return 0, io.EOF
	}
	tok := s.sc.Text()
	v, err := strconv.ParseInt(tok, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("recording sample %d: %q is not a 16-bit integer", s.n, tok)
	}
	s.n++
	return int16(v), nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
