package jpg

import (
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

func init() {
	// Maker note parsers improve coverage for camera-specific tags.
	exif.RegisterParsers(mknote.All...)
}

// ViewEXIF prints every EXIF field of the JPEG at path to w. Read-only;
// useful for verifying what a merge wrote.
func ViewEXIF(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return fmt.Errorf("no EXIF metadata found in %s", path)
	}

	fmt.Fprintln(w, "EXIF Metadata:")
	return x.Walk(walker{w: w})
}

type walker struct {
	w io.Writer
}

func (wk walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	fmt.Fprintf(wk.w, "%s: %v\n", name, tag)
	return nil
}
