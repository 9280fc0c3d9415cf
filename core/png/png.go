// Package png registers the PNG slot in the writer registry. XMP
// writing for PNG is not implemented; the writer reports itself as
// read-only so the scanner never enqueues PNG files.
package png

import (
	"fmt"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// Writer is a no-op placeholder for PNG metadata writing.
type Writer struct{}

// NewWriter returns the PNG stub writer.
func NewWriter() *Writer { return &Writer{} }

// Info implements core.MetadataWriter.
func (w *Writer) Info() core.WriterInfo {
	return core.WriterInfo{
		Name:       "PNG",
		Extensions: []string{".png"},
		CanWrite:   false,
		Notes:      "XMP sidecar merge not implemented.",
	}
}

// Apply implements core.MetadataWriter and always refuses.
func (w *Writer) Apply(path string, rec *core.SidecarRecord, backup bool) error {
	return fmt.Errorf("%w: PNG writing not implemented: %s", core.ErrUnsupportedFormat, path)
}
