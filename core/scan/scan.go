// Package scan walks a Takeout directory tree and runs the
// sidecar-to-EXIF pipeline over every media file it finds.
package scan

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/jpg"
	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/mp4"
	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/png"
	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/sidecar"
)

// Options configures one scan run.
type Options struct {
	Recursive    bool
	DryRun       bool
	Backup       bool
	SetFileTimes bool
	// Workers bounds the pool; 0 means runtime.NumCPU().
	Workers int
	// Location is the time reference for EXIF timestamps; nil means UTC.
	Location *time.Location

	// Console receives log lines and the summary; nil means os.Stdout.
	Console io.Writer
	// NoRunLog suppresses the gptew-*.log file (used by tests).
	NoRunLog bool
}

// Scanner runs the per-file pipeline find → parse → merge → commit
// across a directory tree. Each unit of work owns a disjoint set of
// paths, so workers never need to coordinate beyond the Stats counters.
type Scanner struct {
	opts    Options
	writers map[core.FormatID]core.MetadataWriter
	log     *logrus.Logger
}

// New returns a Scanner with the standard writer registry: a real JPEG
// writer plus the PNG and MP4 placeholders.
func New(opts Options) *Scanner {
	s := &Scanner{
		opts:    opts,
		writers: make(map[core.FormatID]core.MetadataWriter),
	}
	s.Register(core.FmtJPEG, jpg.NewWriter(opts.Location))
	s.Register(core.FmtPNG, png.NewWriter())
	s.Register(core.FmtMP4, mp4.NewWriter())
	s.Register(core.FmtMOV, mp4.NewWriter())
	return s
}

// Register installs (or replaces) the writer for a format.
func (s *Scanner) Register(id core.FormatID, w core.MetadataWriter) {
	s.writers[id] = w
}

// Run processes every writable media file under root and returns the
// aggregated statistics. Only a root that cannot be listed at all is a
// run-level error; everything per-file is logged, counted, and skipped.
func (s *Scanner) Run(root string) (*core.Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrFatalScan, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrFatalScan, root)
	}

	console := s.opts.Console
	if console == nil {
		console = os.Stdout
	}

	var runLog *os.File
	var runLogPath string
	if !s.opts.NoRunLog {
		runLog, runLogPath = openRunLog(root)
		if runLog != nil {
			defer runLog.Close()
		}
	}

	s.log = logrus.New()
	s.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if runLog != nil {
		s.log.SetOutput(io.MultiWriter(console, runLog))
	} else {
		s.log.SetOutput(console)
	}

	mode := "WRITE"
	if s.opts.DryRun {
		mode = "DRY-RUN"
	}
	s.log.WithFields(logrus.Fields{
		"root":         root,
		"mode":         mode,
		"recursive":    s.opts.Recursive,
		"backup":       s.opts.Backup,
		"setFileTimes": s.opts.SetFileTimes,
	}).Info("scan started")

	files, err := s.collect(root)
	if err != nil {
		return nil, err
	}

	stats := &core.Stats{}
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				s.processMedia(path, stats)
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	stats.WriteSummary(console, runLog, s.opts.DryRun)
	if runLog != nil {
		fmt.Fprintf(console, "\nFull log written to: %s\n", runLogPath)
	}
	return stats, nil
}

// collect lists the media files to process: regular files whose
// extension maps to a format with a real (writable) writer.
func (s *Scanner) collect(root string) ([]string, error) {
	var files []string

	appendIfMedia := func(path string) {
		id := core.FormatForPath(path)
		w, ok := s.writers[id]
		if ok && w.Info().CanWrite {
			files = append(files, path)
		}
	}

	if !s.opts.Recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrFatalScan, root, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				appendIfMedia(filepath.Join(root, e.Name()))
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.log.WithField("path", path).WithError(err).Warn("skipping unreadable path")
			return nil
		}
		if d.Type().IsRegular() {
			appendIfMedia(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrFatalScan, root, err)
	}
	return files, nil
}

// processMedia runs the full pipeline for one media file.
func (s *Scanner) processMedia(path string, stats *core.Stats) {
	stats.AddProcessed()
	entry := s.log.WithField("path", path)

	sidecarPath, ok := sidecar.Find(path)
	if !ok {
		entry.Info("skip: no sidecar")
		stats.AddSkipNoSidecar(path)
		return
	}

	rec, err := sidecar.Parse(sidecarPath)
	if err != nil {
		entry.WithError(err).Error("sidecar parse failed")
		stats.AddError(path, err)
		return
	}
	if !rec.HasRelevantData() {
		entry.Info("skip: sidecar has no relevant data")
		stats.AddSkipNoData(path)
		return
	}

	if s.opts.DryRun {
		entry.WithField("sidecar", rec.Info()).Info("dry-run: would update")
		stats.AddUpdated()
		return
	}

	writer, err := s.writerFor(path)
	if err != nil {
		entry.WithError(err).Error("no writer for file")
		stats.AddError(path, err)
		return
	}

	if err := writer.Apply(path, rec, s.opts.Backup); err != nil {
		entry.WithError(err).Error("metadata update failed")
		stats.AddError(path, err)
		return
	}

	if s.opts.SetFileTimes && rec.PhotoTaken != nil {
		t := time.Unix(*rec.PhotoTaken, 0)
		if err := os.Chtimes(path, t, t); err != nil {
			entry.WithError(err).Warn("could not set file times")
		}
	}

	entry.WithField("sidecar", rec.Info()).Info("updated")
	stats.AddUpdated()
}

// writerFor resolves the writer by sniffing the file's actual format.
// An extension that lies about its content is an error, not a crash.
func (s *Scanner) writerFor(path string) (core.MetadataWriter, error) {
	id, err := core.DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrNotFound, path, err)
	}
	w, ok := s.writers[id]
	if !ok || !w.Info().CanWrite {
		return nil, fmt.Errorf("%w: %s detected as %s", core.ErrUnsupportedFormat, path, id)
	}
	return w, nil
}

// openRunLog creates the timestamped run log in root, falling back to
// the working directory. A missing log never blocks a run.
func openRunLog(root string) (*os.File, string) {
	name := "gptew-" + time.Now().Format("20060102-150405") + ".log"

	path := filepath.Join(root, name)
	f, err := os.Create(path)
	if err == nil {
		return f, path
	}
	f, err = os.Create(name)
	if err == nil {
		return f, name
	}
	fmt.Fprintf(os.Stderr, "warning: could not create log file: %v\n", err)
	return nil, ""
}
