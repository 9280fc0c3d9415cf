// Package sidecar parses Google Takeout JSON sidecar files and locates
// the sidecar belonging to a media file.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// rawSidecar mirrors the subset of the Takeout JSON shape we read.
// Timestamps arrive string-encoded; unknown fields are ignored.
type rawSidecar struct {
	Title            *string       `json:"title"`
	Description      *string       `json:"description"`
	PhotoTakenTime   *rawTimestamp `json:"photoTakenTime"`
	CreationTime     *rawTimestamp `json:"creationTime"`
	ModificationTime *rawTimestamp `json:"modificationTime"`
	GeoData          *rawGeoData   `json:"geoData"`
}

type rawTimestamp struct {
	Timestamp *string `json:"timestamp"`
}

type rawGeoData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

// Parse reads the sidecar at path into a SidecarRecord. Missing or null
// nodes map to nil fields; a latitude/longitude pair of exactly (0, 0)
// collapses all three geo fields to nil, since Takeout emits those
// null-island coordinates as a placeholder for "no GPS data".
func Parse(path string) (*core.SidecarRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", core.ErrNotFound, path, err)
	}

	var raw rawSidecar
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedSidecar, path, err)
	}

	rec := &core.SidecarRecord{
		Title:       raw.Title,
		Description: raw.Description,
		PhotoTaken:  epochOf(raw.PhotoTakenTime),
		Created:     epochOf(raw.CreationTime),
		Modified:    epochOf(raw.ModificationTime),
	}

	if gd := raw.GeoData; gd != nil {
		rec.Latitude = gd.Latitude
		rec.Longitude = gd.Longitude
		rec.Altitude = gd.Altitude
	}

	if rec.Latitude != nil && rec.Longitude != nil &&
		*rec.Latitude == 0.0 && *rec.Longitude == 0.0 {
		rec.Latitude = nil
		rec.Longitude = nil
		rec.Altitude = nil
	}

	return rec, nil
}

// epochOf extracts the string-wrapped epoch seconds from a timestamp
// node. Anything missing or unparseable maps to nil, never to zero.
func epochOf(ts *rawTimestamp) *int64 {
	if ts == nil || ts.Timestamp == nil {
		return nil
	}
	v, err := strconv.ParseInt(*ts.Timestamp, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Find locates the sidecar for a media file. The exact name
// "image.jpg.json" wins; otherwise Takeout sometimes truncates the
// media extension inside the sidecar name, so "image.jp.json" and
// "image.j.json" are tried in order. Returns false if nothing matches.
func Find(mediaPath string) (string, bool) {
	candidate := mediaPath + ".json"
	if fileExists(candidate) {
		return candidate, true
	}

	dir := filepath.Dir(mediaPath)
	name := filepath.Base(mediaPath)
	ext := filepath.Ext(name)
	if ext == "" {
		return "", false
	}
	base := strings.TrimSuffix(name, ext)
	ext = ext[1:] // drop the dot

	for n := len(ext) - 1; n >= 1; n-- {
		candidate = filepath.Join(dir, base+"."+ext[:n]+".json")
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
