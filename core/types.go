// Package core defines the shared types, errors, and writer registry
// for the Google Photos Takeout EXIF writer.
package core

import (
	"errors"
	"fmt"
	"time"
)

// SidecarRecord holds the metadata parsed from one Google Takeout JSON
// sidecar. Every field is optional; nil means the sidecar did not carry
// the value, which is distinct from a present zero.
type SidecarRecord struct {
	PhotoTaken *int64 // photoTakenTime.timestamp, epoch seconds
	Created    *int64 // creationTime.timestamp, epoch seconds
	Modified   *int64 // modificationTime.timestamp, epoch seconds

	Latitude  *float64 // decimal degrees, positive north
	Longitude *float64 // decimal degrees, positive east
	Altitude  *float64 // meters, positive above sea level

	Title       *string
	Description *string
}

// HasRelevantData reports whether the record carries anything worth
// writing into a media file.
func (r *SidecarRecord) HasRelevantData() bool {
	return r.PhotoTaken != nil || (r.Latitude != nil && r.Longitude != nil)
}

// HasGPS reports whether both coordinates are present. Altitude alone
// never counts.
func (r *SidecarRecord) HasGPS() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Info returns a short human-readable description of the record's
// relevant fields, for per-file log lines.
func (r *SidecarRecord) Info() string {
	s := ""
	if r.PhotoTaken != nil {
		s = "time=" + time.Unix(*r.PhotoTaken, 0).UTC().Format(time.RFC3339)
	}
	if r.HasGPS() {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("gps=(%v,%v)", *r.Latitude, *r.Longitude)
	}
	return s
}

// Rational is the EXIF wire representation of a non-integer numeric
// value: a signed numerator over an unsigned denominator.
type Rational struct {
	Num int32
	Den uint32
}

// Float returns the decimal value of the fraction.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// MetadataWriter applies a sidecar record to one media file of a given
// format. Implementations must leave the file untouched on failure.
type MetadataWriter interface {
	// Apply merges rec into path's embedded metadata and rewrites the
	// file in place. backup snapshots the original to path+".bak" first.
	Apply(path string, rec *SidecarRecord, backup bool) error
	// Info returns format capabilities.
	Info() WriterInfo
}

// WriterInfo describes what a writer supports.
type WriterInfo struct {
	Name       string   // "JPEG"
	Extensions []string // [".jpg", ".jpeg"]
	CanWrite   bool     // false for registered stubs
	Notes      string
}

// Error taxonomy. Per-file errors are logged and skipped at the scan
// boundary; only ErrFatalScan aborts a run.
var (
	// ErrNotFound means a sidecar or media path is missing or unreadable.
	ErrNotFound = errors.New("file not found")
	// ErrMalformedSidecar means the sidecar exists but is not valid JSON.
	ErrMalformedSidecar = errors.New("malformed sidecar JSON")
	// ErrNoRelevantData means the sidecar parsed but carries neither a
	// capture timestamp nor coordinates.
	ErrNoRelevantData = errors.New("sidecar has no relevant data")
	// ErrMetadataWrite means the media container could not be parsed or
	// re-serialized.
	ErrMetadataWrite = errors.New("metadata write failed")
	// ErrUnsupportedFormat means no writer can mutate the format.
	ErrUnsupportedFormat = errors.New("unsupported media format")
	// ErrFatalScan means the scan root itself could not be listed.
	ErrFatalScan = errors.New("cannot scan root directory")
)
