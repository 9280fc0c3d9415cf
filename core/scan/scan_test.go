package scan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// recordingWriter stands in for the JPEG writer so scan tests do not
// depend on real EXIF serialization.
type recordingWriter struct {
	mu      sync.Mutex
	applied []string
	err     error
}

func (w *recordingWriter) Apply(path string, rec *core.SidecarRecord, backup bool) error {
	w.mu.Lock()
	w.applied = append(w.applied, path)
	w.mu.Unlock()
	return w.err
}

func (w *recordingWriter) Info() core.WriterInfo {
	return core.WriterInfo{Name: "JPEG", Extensions: []string{".jpg", ".jpeg"}, CanWrite: true}
}

func (w *recordingWriter) appliedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.applied...)
}

var jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02, 0x03, 0x04, 0x05}

func writeJpeg(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, jpegMagic, 0644))
	return path
}

func writeSidecar(t *testing.T, mediaPath, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(mediaPath+".json", []byte(body), 0644))
}

const fullSidecar = `{
	"title": "photo.jpg",
	"photoTakenTime": {"timestamp": "1631456389"},
	"geoData": {"latitude": 52.520008, "longitude": 13.404954, "altitude": 34.5}
}`

func newTestScanner(opts Options) (*Scanner, *recordingWriter) {
	opts.NoRunLog = true
	if opts.Console == nil {
		opts.Console = &bytes.Buffer{}
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}
	s := New(opts)
	w := &recordingWriter{}
	s.Register(core.FmtJPEG, w)
	return s, w
}

func TestRunAppliesMatchedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)
	writeJpeg(t, dir, "b.jpg") // no sidecar
	c := writeJpeg(t, dir, "c.jpg")
	writeSidecar(t, c, `{"title": "c.jpg"}`) // nothing to write

	s, w := newTestScanner(Options{Recursive: true})
	stats, err := s.Run(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Processed)
	assert.Equal(t, int64(1), stats.Updated)
	assert.Equal(t, int64(1), stats.SkipNoSidecar)
	assert.Equal(t, int64(1), stats.SkipNoData)
	assert.Equal(t, int64(0), stats.Errors)
	assert.Equal(t, []string{a}, w.appliedPaths())
}

func TestRunSkipsNonMediaFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{}"), 0644))

	s, _ := newTestScanner(Options{Recursive: true})
	stats, err := s.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Processed)
}

func TestRunRecursiveWalksSubdirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Photos from 2021")
	require.NoError(t, os.Mkdir(sub, 0755))
	a := writeJpeg(t, sub, "a.jpg")
	writeSidecar(t, a, fullSidecar)

	s, w := newTestScanner(Options{Recursive: true})
	stats, err := s.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Updated)
	assert.Equal(t, []string{a}, w.appliedPaths())

	// Same tree, non-recursive: the nested file is invisible.
	s2, w2 := newTestScanner(Options{Recursive: false})
	stats2, err := s2.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats2.Processed)
	assert.Empty(t, w2.appliedPaths())
}

func TestRunDryRunNeverWrites(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)
	before, err := os.ReadFile(a)
	require.NoError(t, err)

	s, w := newTestScanner(Options{Recursive: true, DryRun: true, SetFileTimes: true})
	stats, err := s.Run(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Updated)
	assert.Empty(t, w.appliedPaths())

	after, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunCountsMalformedSidecar(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, `{not json`)

	s, w := newTestScanner(Options{Recursive: true})
	stats, err := s.Run(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Errors)
	assert.Empty(t, w.appliedPaths())
	require.Len(t, stats.Errored(), 1)
	assert.Contains(t, stats.Errored()[0], a)
}

func TestRunCountsWriterFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)

	s, w := newTestScanner(Options{Recursive: true})
	w.err = fmt.Errorf("%w: segment table truncated", core.ErrMetadataWrite)

	stats, err := s.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(0), stats.Updated)
}

func TestRunSetFileTimes(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)

	s, _ := newTestScanner(Options{Recursive: true, SetFileTimes: true})
	_, err := s.Run(dir)
	require.NoError(t, err)

	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Unix(1631456389, 0)))
}

func TestRunLyingExtensionIsError(t *testing.T) {
	dir := t.TempDir()
	// Extension says JPEG but content is PNG; detection must refuse it.
	path := filepath.Join(dir, "fake.jpg")
	pngMagic := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	require.NoError(t, os.WriteFile(path, pngMagic, 0644))
	writeSidecar(t, path, fullSidecar)

	opts := Options{Recursive: true, NoRunLog: true, Console: &bytes.Buffer{}, Workers: 1}
	s := New(opts) // real registry: PNG writer is a stub
	stats, err := s.Run(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Errors)
	require.Len(t, stats.Errored(), 1)
	assert.Contains(t, stats.Errored()[0], "detected as png")
}

func TestRunFatalOnMissingRoot(t *testing.T) {
	s, _ := newTestScanner(Options{Recursive: true})
	_, err := s.Run(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, core.ErrFatalScan)
}

func TestRunFatalOnFileRoot(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	s, _ := newTestScanner(Options{Recursive: true})
	_, err := s.Run(a)
	assert.ErrorIs(t, err, core.ErrFatalScan)
}

func TestRunSummaryOnConsole(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg")
	writeSidecar(t, a, fullSidecar)

	var console bytes.Buffer
	s, _ := newTestScanner(Options{Recursive: true, Console: &console})
	_, err := s.Run(dir)
	require.NoError(t, err)

	out := console.String()
	assert.Contains(t, out, "SUMMARY")
	assert.Contains(t, out, "Total files processed: 1")
	assert.Contains(t, out, "Successfully updated:  1")
}
