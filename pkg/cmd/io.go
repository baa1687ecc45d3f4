package cmd

import (
	"errors"
	"io"
	"os"
)

func errorsIs(err, target error) bool {
	return errors.Is(err, target)
}

// openOutput returns a writer for the --output flag: the named file if set,
// stdout otherwise, plus a close function that's always safe to call.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, func() {}, err
	}

	return f, func() { f.Close() }, nil
}

// byteCounter wraps a writer, counting bytes written, so the CLI can report
// output size without re-stat-ing the file (and still work for stdout).
type byteCounter struct {
	w io.Writer
	n int64
}

func (c *byteCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
