package sink

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/eskila/jdoc"
	"github.com/eskila/jdoc/internal/moisture"
)

const initialLineSize = 256

// JSONLSink appends one compact JSON object per row:
//
//	{"timestamp":"...","plants":{"basil":{"pin":32,"raw":1500,"percent":58.82}}}
//
// Lines are rendered into a reusable buffer that grows whenever a row does
// not fit.
type JSONLSink struct {
	f    *os.File
	path string
	buf  []byte
}

func OpenJSONL(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl %s: %w", path, err)
	}
	return &JSONLSink{f: f, path: path, buf: make([]byte, initialLineSize)}, nil
}

// Document builds the JSON document for row.
func Document(row moisture.Row) *jdoc.Document {
	doc := jdoc.New()
	doc.SetString("timestamp", formatTimestamp(row.Timestamp))
	plants := doc.Promote("plants")
	for _, r := range row.Readings {
		plant := plants.Promote(r.Plant)
		plant.SetInt("pin", int64(r.Pin))
		if r.Raw != nil {
			plant.SetInt("raw", int64(*r.Raw))
		} else {
			plant.SetNull("raw")
		}
		plant.SetFloat("percent", r.Percent)
	}
	return doc
}

func (s *JSONLSink) Write(_ context.Context, row moisture.Row) error {
	line, err := s.render(Document(row))
	if err != nil {
		return err
	}
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write jsonl %s: %w", s.path, err)
	}
	return nil
}

func (s *JSONLSink) render(doc *jdoc.Document) ([]byte, error) {
	for {
		n, err := doc.Serialize(s.buf)
		if err == nil {
			return s.buf[:n], nil
		}
		var tooSmall *jdoc.BufferTooSmallError
		if !errors.As(err, &tooSmall) {
			return nil, fmt.Errorf("render row: %w", err)
		}
		// one spare byte for the newline appended by Write
		s.buf = make([]byte, tooSmall.Needed+1)
	}
}

func (s *JSONLSink) Close() error {
	return s.f.Close()
}
