package core

import (
	"bufio"
	"io"
)

// LineReader reads one command line at a time from an input stream into a
// dynamically expanding buffer.
type LineReader struct {
	src        *bufio.Reader
	initialCap int
	growth     int
}

// NewLineReader creates a LineReader over r. The line buffer starts at
// initialCap bytes and is multiplied by growthFactor whenever it fills.
func NewLineReader(r io.Reader, initialCap, growthFactor int) *LineReader {
	return &LineReader{
		src:        bufio.NewReader(r),
		initialCap: initialCap,
		growth:     growthFactor,
	}
}

// ReadLine reads characters up to the next newline and returns them with the
// newline excluded. At end of input it returns whatever was accumulated along
// with io.EOF, so a final line without a trailing newline is not lost.
func (lr *LineReader) ReadLine() (string, error) {
	buf := make([]byte, 0, lr.initialCap)

	for {
		c, err := lr.src.ReadByte()
		if err != nil {
			return string(buf), err
		}
		if c == '\n' {
			return string(buf), nil
		}

		// Grow by the configured factor, never by increments, keeping the
		// accumulated bytes intact.
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), cap(buf)*lr.growth)
			copy(grown, buf)
			buf = grown
		}
		buf = append(buf, c)
	}
}
