package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// JSONLSink appends records as JSON lines.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var _ Sink = (*JSONLSink)(nil)

// NewJSONLSink creates/opens the target file for appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{file: file, enc: json.NewEncoder(file)}, nil
}

// Record writes a single decision to the underlying JSONL file.
func (s *JSONLSink) Record(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}

// Close flushes and closes the file handle.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// JSONLReader loads records back from a JSONL file.
type JSONLReader struct {
	path string
}

var _ Reader = (*JSONLReader)(nil)

// NewJSONLReader reads the file written by JSONLSink.
func NewJSONLReader(path string) *JSONLReader {
	return &JSONLReader{path: path}
}

// All decodes every line; blank lines are skipped.
func (r *JSONLReader) All() ([]Record, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var out []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}

// Close is a no-op; the reader opens the file per call.
func (r *JSONLReader) Close() error { return nil }
