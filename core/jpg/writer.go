package jpg

import (
	"fmt"
	"io"
	"os"
	"time"

	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// Writer is the JPEG implementation of core.MetadataWriter.
type Writer struct {
	// Loc is the time reference for EXIF timestamp strings.
	Loc *time.Location
}

// NewWriter returns a JPEG writer formatting timestamps in loc. A nil
// loc means UTC.
func NewWriter(loc *time.Location) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{Loc: loc}
}

// Info implements core.MetadataWriter.
func (w *Writer) Info() core.WriterInfo {
	return core.WriterInfo{
		Name:       "JPEG",
		Extensions: []string{".jpg", ".jpeg"},
		CanWrite:   true,
		Notes:      "Lossless EXIF rewrite; pixel data is never re-encoded.",
	}
}

// Apply merges rec into the file's EXIF and rewrites it in place via
// the temp-and-rename protocol. The original file is untouched on any
// failure path.
func (w *Writer) Apply(path string, rec *core.SidecarRecord, backup bool) error {
	if !rec.HasRelevantData() {
		return fmt.Errorf("%w: %s", core.ErrNoRelevantData, path)
	}

	parser := jpegstructure.NewJpegMediaParser()
	intfc, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", core.ErrMetadataWrite, path, err)
	}
	sl := intfc.(*jpegstructure.SegmentList)

	rootIb, err := BuildExif(sl, rec, w.Loc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrMetadataWrite, path, err)
	}
	if err := sl.SetExif(rootIb); err != nil {
		return fmt.Errorf("%w: set EXIF segment in %s: %v", core.ErrMetadataWrite, path, err)
	}

	return Commit(path, sl.Write, backup)
}

// Commit writes the serialized container to a temp sibling of path,
// optionally snapshots the pristine original to path+".bak", then
// atomically renames the temp file over the original. The temp sibling
// keeps the rename on one filesystem. On failure the temp file is
// removed and the original remains byte-for-byte intact.
func Commit(path string, serialize func(io.Writer) error, backup bool) error {
	tmp := path + ".tmp"

	if err := writeTemp(tmp, serialize); err != nil {
		os.Remove(tmp)
		return err
	}

	// Snapshot only after the new content is fully staged, and always
	// from the untouched original.
	if backup {
		if err := copyFile(path, path+".bak"); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeTemp(tmp string, serialize func(io.Writer) error) error {
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := serialize(f); err != nil {
		f.Close()
		return fmt.Errorf("serialize: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
