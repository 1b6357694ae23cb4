package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// lineReader splits a session log into lines. Lines longer than
// maxLen are dropped whole and counted instead of failing the
// read, since one huge tool result should not hide the rest of
// a session.
type lineReader struct {
	r       *bufio.Reader
	maxLen  int
	buf     []byte
	skipped int
	err     error
}

func newLineReader(r io.Reader, maxLen int) *lineReader {
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialScanBufSize),
		maxLen: maxLen,
	}
}

// next returns the next non-blank line without its line ending.
// It returns false at EOF or after a read error; see Err.
func (lr *lineReader) next() (string, bool) {
	for lr.err == nil {
		line, ok, err := lr.readLine()
		if err != nil {
			lr.err = err
			// A final line without a newline still counts; a
			// line cut short by a read failure does not.
			if errors.Is(err, io.EOF) && ok && len(line) > 0 {
				return string(line), true
			}
			break
		}
		if ok && len(line) > 0 {
			return string(line), true
		}
	}
	return "", false
}

// readLine accumulates one line. ok is false when the line was
// over maxLen. A final line without a newline is returned
// together with io.EOF.
func (lr *lineReader) readLine() ([]byte, bool, error) {
	lr.buf = lr.buf[:0]
	over := false
	for {
		chunk, err := lr.r.ReadSlice('\n')
		if !over {
			if len(lr.buf)+len(chunk) > lr.maxLen+2 {
				over = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line := bytes.TrimRight(lr.buf, "\r\n")
		if !over && len(line) > lr.maxLen {
			over = true
		}
		if over {
			lr.skipped++
			return nil, false, err
		}
		return line, true, err
	}
}

// Skipped reports how many oversized lines were dropped.
func (lr *lineReader) Skipped() int {
	return lr.skipped
}

// Err returns the read error that ended the scan, or nil when
// the input was read to EOF.
func (lr *lineReader) Err() error {
	if errors.Is(lr.err, io.EOF) {
		return nil
	}
	return lr.err
}
