package lease

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultPaths are the usual dnsmasq lease file locations, in lookup order
var DefaultPaths = []string{
	"/var/lib/misc/dnsmasq.leases",
	"/etc/dnsmasq.d/dnsmasq.leases",
}

// DefaultReadTimeout bounds a single candidate open and read
const DefaultReadTimeout = 5 * time.Second

const maxLineLength = 1024 * 1024

// Candidates returns the ordered list of lease files to try: the explicit
// path first when one is given, then the defaults.
func Candidates(explicit string, defaults []string) []string {
	paths := make([]string, 0, len(defaults)+1)
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return append(paths, defaults...)
}

// Reader loads the raw lines of the first readable lease file
type Reader struct {
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewReader creates a reader. A timeout <= 0 disables the per-file bound.
func NewReader(timeout time.Duration, log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{
		timeout: timeout,
		log:     log,
	}
}

// Read tries each path in order and returns the lines of the first one that
// opens and reads completely. Unreadable paths are skipped. When none can be
// read the error matches ErrSourceUnavailable.
func (r *Reader) Read(ctx context.Context, paths []string) ([]string, error) {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}

		lines, err := r.readWithTimeout(ctx, path)
		if err != nil {
			r.log.Debugw("Skipping lease file", "path", path, "error", err)
			continue
		}

		r.log.Debugw("Read lease file", "path", path, "lines", len(lines))
		return lines, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return nil, fmt.Errorf("%w: tried %v", ErrSourceUnavailable, paths)
}

type readResult struct {
	lines []string
	err   error
}

// readWithTimeout runs readLines in the background so a hung filesystem
// only costs the caller the configured timeout.
func (r *Reader) readWithTimeout(ctx context.Context, path string) ([]string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan readResult, 1)
	go func() {
		lines, err := readLines(path)
		done <- readResult{lines: lines, err: err}
	}()

	select {
	case res := <-done:
		return res.lines, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("reading %s: %w", path, ctx.Err())
	}
}

// readLines returns every line of the file with its terminator removed
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := make([]string, 0, 64)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
