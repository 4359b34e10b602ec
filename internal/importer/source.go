package importer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yungbote/kgforge-backend/internal/domain"
)

// RecordSource streams pre-parsed raw records. Next returns io.EOF when
// the sequence is exhausted; empty sequences are valid (a keyword-filtered
// import may match nothing).
type RecordSource interface {
	Next() (*domain.RawRecord, error)
}

// SliceSource serves records from memory, mainly for tests and small
// fixtures.
type SliceSource struct {
	records []domain.RawRecord
	pos     int
}

func NewSliceSource(records []domain.RawRecord) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (*domain.RawRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return &rec, nil
}

// JSONLSource reads one raw record per line, the interchange format the
// source-specific parsers emit.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLSource{scanner: sc}
}

func (s *JSONLSource) Next() (*domain.RawRecord, error) {
	for s.scanner.Scan() {
		s.line++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec domain.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("jsonl source: line %d: %w", s.line, err)
		}
		return &rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonl source: scan: %w", err)
	}
	return nil, io.EOF
}
