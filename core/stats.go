package core

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// MaxDisplayedPaths bounds how many skipped/errored paths the console
// summary lists. The run log always receives the full list.
const MaxDisplayedPaths = 50

// Stats aggregates the results of one run. Counters are safe for
// concurrent use by pool workers; path lists are mutex-guarded.
type Stats struct {
	Processed     int64
	Updated       int64
	SkipNoSidecar int64
	SkipNoData    int64
	Errors        int64

	mu      sync.Mutex
	skipped []string
	errored []string
}

// AddProcessed counts one media file entering the pipeline.
func (s *Stats) AddProcessed() { atomic.AddInt64(&s.Processed, 1) }

// AddUpdated counts one successful (or dry-run) metadata update.
func (s *Stats) AddUpdated() { atomic.AddInt64(&s.Updated, 1) }

// AddSkipNoSidecar records a media file with no matching sidecar.
func (s *Stats) AddSkipNoSidecar(path string) {
	atomic.AddInt64(&s.SkipNoSidecar, 1)
	s.appendSkipped(path + " (no sidecar)")
}

// AddSkipNoData records a sidecar with nothing worth writing.
func (s *Stats) AddSkipNoData(path string) {
	atomic.AddInt64(&s.SkipNoData, 1)
	s.appendSkipped(path + " (no relevant data)")
}

// AddError records a per-file failure.
func (s *Stats) AddError(path string, err error) {
	atomic.AddInt64(&s.Errors, 1)
	s.mu.Lock()
	s.errored = append(s.errored, fmt.Sprintf("%s (%v)", path, err))
	s.mu.Unlock()
}

func (s *Stats) appendSkipped(entry string) {
	s.mu.Lock()
	s.skipped = append(s.skipped, entry)
	s.mu.Unlock()
}

// Skipped returns a copy of the skipped-path list.
func (s *Stats) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.skipped...)
}

// Errored returns a copy of the errored-path list.
func (s *Stats) Errored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errored...)
}

// WriteSummary renders the run summary. console receives the bounded
// view; full, if non-nil, receives every path (the run log).
func (s *Stats) WriteSummary(console io.Writer, full io.Writer, dryRun bool) {
	sep := strings.Repeat("=", 80)
	both := console
	if full != nil {
		both = io.MultiWriter(console, full)
	}

	suffix := ""
	if dryRun {
		suffix = " (dry-run)"
	}

	fmt.Fprintln(both)
	fmt.Fprintln(both, sep)
	fmt.Fprintln(both, "SUMMARY")
	fmt.Fprintln(both, sep)
	fmt.Fprintf(both, "Total files processed: %d\n", atomic.LoadInt64(&s.Processed))
	fmt.Fprintf(both, "Successfully updated:  %d%s\n", atomic.LoadInt64(&s.Updated), suffix)
	fmt.Fprintf(both, "Skipped (no sidecar):  %d\n", atomic.LoadInt64(&s.SkipNoSidecar))
	fmt.Fprintf(both, "Skipped (no data):     %d\n", atomic.LoadInt64(&s.SkipNoData))
	fmt.Fprintf(both, "Errors:                %d\n", atomic.LoadInt64(&s.Errors))
	fmt.Fprintln(both, sep)

	skipped := s.Skipped()
	if len(skipped) > 0 {
		fmt.Fprintln(both)
		fmt.Fprintf(both, "SKIPPED FILES (%d):\n", len(skipped))
		for i, entry := range skipped {
			if i < MaxDisplayedPaths {
				fmt.Fprintln(both, "  "+entry)
				continue
			}
			if full != nil {
				fmt.Fprintln(full, "  "+entry)
			}
		}
		if len(skipped) > MaxDisplayedPaths {
			fmt.Fprintf(console, "  ... and %d more (see log file for full list)\n",
				len(skipped)-MaxDisplayedPaths)
		}
	}

	errored := s.Errored()
	if len(errored) > 0 {
		fmt.Fprintln(both)
		fmt.Fprintf(both, "ERROR FILES (%d):\n", len(errored))
		for _, entry := range errored {
			fmt.Fprintln(both, "  "+entry)
		}
	}
}
