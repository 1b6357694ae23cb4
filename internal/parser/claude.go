package parser

import (
	"fmt"
	"io"
	"log"
)

const (
	initialScanBufSize = 64 * 1024        // 64KB
	maxScanTokenSize   = 20 * 1024 * 1024 // 20MB
)

// Scan decodes a Claude Code JSONL stream and calls fn for
// each event in file order with its 0-based event index.
// Blank, oversized and malformed lines are skipped and do not
// consume an index. Returning false from fn stops the scan.
// Only read failures are reported.
func Scan(r io.Reader, fn func(index int, e Event) bool) error {
	lr := newLineReader(r, maxScanTokenSize)
	index := 0
	for {
		line, ok := lr.next()
		if !ok {
			if n := lr.Skipped(); n > 0 {
				log.Printf("parser: skipped %d lines over %d bytes", n, maxScanTokenSize)
			}
			return lr.Err()
		}
		e, ok := Decode(line)
		if !ok {
			continue
		}
		if !fn(index, e) {
			return nil
		}
		index++
	}
}

// ReadEvents reads a whole session file. The result is a
// snapshot of the file at call time; a partially written last
// line is dropped like any other malformed line.
func ReadEvents(path string) ([]Event, error) {
	var events []Event
	err := ScanFile(path, func(_ int, e Event) bool {
		events = append(events, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ScanFile is Scan over a file on disk.
func ScanFile(path string, fn func(index int, e Event) bool) error {
	f, err := openLogFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("open %s: not a regular file", path)
	}
	if err := Scan(f, fn); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
