package core

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatID enumerates every format a Takeout export can contain that we
// recognise.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtGIF  FormatID = "gif"
	FmtWebP FormatID = "webp"
	FmtHEIC FormatID = "heic"

	FmtMP4 FormatID = "mp4"
	FmtMOV FormatID = "mov"

	FmtUnknown FormatID = "unknown"
)

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".png":  FmtPNG,
	".gif":  FmtGIF,
	".webp": FmtWebP,
	".heic": FmtHEIC,
	".heif": FmtHEIC,
	".mp4":  FmtMP4,
	".m4v":  FmtMP4,
	".mov":  FmtMOV,
	".qt":   FmtMOV,
}

// FormatForPath returns the FormatID suggested by the path's extension
// alone, without touching the file.
func FormatForPath(path string) FormatID {
	ext := strings.ToLower(filepath.Ext(path))
	if id, ok := extMap[ext]; ok {
		return id
	}
	return FmtUnknown
}

// DetectFormat returns the FormatID for the given file, first by reading
// magic bytes and falling back to extension.
func DetectFormat(path string) (FormatID, error) {
	f, err := os.Open(path)
	if err != nil {
		return FmtUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return FmtUnknown, err
	}
	buf = buf[:n]

	if id := detectMagic(buf); id != FmtUnknown {
		return id, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if id, ok := extMap[ext]; ok {
		return id, nil
	}
	return FmtUnknown, nil
}

func detectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return FmtPNG
	// GIF: GIF87a or GIF89a
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// ISOBMFF: ftyp box at offset 4
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectFtypSubtype(b)
	}
	return FmtUnknown
}

func detectFtypSubtype(b []byte) FormatID {
	if len(b) < 12 {
		return FmtMP4
	}
	switch brand := string(b[8:12]); brand {
	case "heic", "heix", "mif1", "msf1":
		return FmtHEIC
	case "qt  ":
		return FmtMOV
	default:
		return FmtMP4
	}
}
