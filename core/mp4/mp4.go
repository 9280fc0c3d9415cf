// Package mp4 registers the MP4/MOV slot in the writer registry.
// Container timestamp writing is not implemented; the writer reports
// itself as read-only so the scanner never enqueues video files.
package mp4

import (
	"fmt"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// Writer is a no-op placeholder for MP4/MOV metadata writing.
type Writer struct{}

// NewWriter returns the MP4 stub writer.
func NewWriter() *Writer { return &Writer{} }

// Info implements core.MetadataWriter.
func (w *Writer) Info() core.WriterInfo {
	return core.WriterInfo{
		Name:       "MP4",
		Extensions: []string{".mp4", ".m4v", ".mov"},
		CanWrite:   false,
		Notes:      "mvhd creation-time rewrite not implemented.",
	}
}

// Apply implements core.MetadataWriter and always refuses.
func (w *Writer) Apply(path string, rec *core.SidecarRecord, backup bool) error {
	return fmt.Errorf("%w: MP4/MOV writing not implemented: %s", core.ErrUnsupportedFormat, path)
}
