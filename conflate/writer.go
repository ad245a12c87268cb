// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// Writer streams match records as JSON Lines. Every record occupies one
// complete line, so a reader can always resume from a fully written
// prefix.
type Writer struct {
	w   io.Writer
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w in a buffered JSONL writer.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)

	return &Writer{w: w, buf: buf, enc: json.NewEncoder(buf)}
}

// Write appends one record. The encoder terminates each record with a
// newline.
func (w *Writer) Write(record *MatchRecord) error {
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("encoding match %s/%s: %w", record.OSMID, record.OvertureID, err)
	}

	return nil
}

// Flush drains the buffer to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// WriteFile serializes all records to path, replacing any previous
// content.
func WriteFile(path string, records []MatchRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := NewWriter(f)

	for i := range records {
		if err := w.Write(&records[i]); err != nil {
			f.Close()

			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()

		return fmt.Errorf("flushing %s: %w", path, err)
	}

	return f.Close()
}

// ReadAll reads a JSONL match stream leniently: blank lines are
// ignored and malformed lines are skipped with a warning, mirroring
// the tolerant downstream readers.
func ReadAll(r io.Reader) ([]MatchRecord, error) {
	var records []MatchRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var record MatchRecord
		if err := json.Unmarshal(data, &record); err != nil {
			log.Printf("Skipping line %d: %s", line, err)

			continue
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading match stream: %w", err)
	}

	return records, nil
}

// ReadFile reads a JSONL match file with ReadAll semantics.
func ReadFile(path string) ([]MatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ReadAll(f)
}
