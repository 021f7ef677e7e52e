package lease

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ParseAll parses every non-blank line.
//
// In strict mode the first malformed line aborts the batch and nothing is
// returned. Otherwise malformed lines are logged and skipped, and their
// number is returned alongside the records.
func ParseAll(lines []string, strict bool, log *zap.SugaredLogger) ([]Record, int, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	records := make([]Record, 0, len(lines))
	skipped := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := Parse(line)
		if err != nil {
			if strict {
				return nil, 0, fmt.Errorf("line %d: %w", i+1, err)
			}
			log.Warnw("Skipping malformed lease line", "line", i+1, "error", err)
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

// Result is the outcome of one listing pass
type Result struct {
	Records []Record
	Skipped int
}

// Service lists the current leases. Every call reads the lease file afresh.
type Service struct {
	paths  []string
	reader *Reader
	strict bool
	log    *zap.SugaredLogger
}

// NewService creates a lease service over the ordered candidate paths
func NewService(paths []string, reader *Reader, strict bool, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if reader == nil {
		reader = NewReader(DefaultReadTimeout, log)
	}
	return &Service{
		paths:  append([]string(nil), paths...),
		reader: reader,
		strict: strict,
		log:    log,
	}
}

// Paths returns the candidate lease files in lookup order
func (s *Service) Paths() []string {
	return append([]string(nil), s.paths...)
}

// List reads and parses the lease file
func (s *Service) List(ctx context.Context) (Result, error) {
	lines, err := s.reader.Read(ctx, s.paths)
	if err != nil {
		return Result{}, err
	}

	records, skipped, err := ParseAll(lines, s.strict, s.log)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: records, Skipped: skipped}, nil
}
