// Package jpg implements the lossless JPEG EXIF rewrite: building an
// updated tag set from a sidecar record and committing it to disk
// without touching the compressed image data.
package jpg

import (
	"fmt"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// exifTimeLayout is the colon-delimited EXIF ASCII timestamp format.
const exifTimeLayout = "2006:01:02 15:04:05"

// FormatExifTime renders epoch seconds as an EXIF timestamp string in
// the given time reference.
func FormatExifTime(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format(exifTimeLayout)
}

// BuildExif overlays the record's fields onto the segment list's
// existing EXIF tags, or onto a fresh tag set if the JPEG carries none.
// Every write replaces any existing occurrence of the tag, so repeated
// runs are idempotent. Fields absent from the record leave the
// corresponding tags alone.
func BuildExif(sl *jpegstructure.SegmentList, rec *core.SidecarRecord, loc *time.Location) (*exif.IfdBuilder, error) {
	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		// No EXIF yet; start from an empty standard tag set.
		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, fmt.Errorf("create IFD mapping: %w", err)
		}
		ti := exif.NewTagIndex()
		if err := exif.LoadStandardTags(ti); err != nil {
			return nil, fmt.Errorf("load standard tags: %w", err)
		}
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity,
			exifcommon.EncodeDefaultByteOrder)
	}

	if rec.PhotoTaken != nil {
		s := FormatExifTime(*rec.PhotoTaken, loc)
		exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
		if err != nil {
			return nil, fmt.Errorf("get EXIF sub-directory: %w", err)
		}
		// The sidecar's single capture timestamp feeds both tags.
		if err := exifIb.SetStandardWithName("DateTimeOriginal", s); err != nil {
			return nil, fmt.Errorf("set DateTimeOriginal: %w", err)
		}
		if err := exifIb.SetStandardWithName("DateTimeDigitized", s); err != nil {
			return nil, fmt.Errorf("set DateTimeDigitized: %w", err)
		}
	}

	if rec.Modified != nil {
		s := FormatExifTime(*rec.Modified, loc)
		rootDir, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
		if err != nil {
			return nil, fmt.Errorf("get root directory: %w", err)
		}
		// ModifyDate is the baseline TIFF DateTime tag.
		if err := rootDir.SetStandardWithName("DateTime", s); err != nil {
			return nil, fmt.Errorf("set DateTime: %w", err)
		}
	}

	if rec.HasGPS() {
		gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPSInfo")
		if err != nil {
			return nil, fmt.Errorf("get GPS sub-directory: %w", err)
		}
		if err := setCoordinates(gpsIb, *rec.Latitude, *rec.Longitude); err != nil {
			return nil, err
		}
		if rec.Altitude != nil {
			if err := setAltitude(gpsIb, *rec.Altitude); err != nil {
				return nil, err
			}
		}
	}

	return rootIb, nil
}

func setCoordinates(gpsIb *exif.IfdBuilder, lat, lon float64) error {
	if err := gpsIb.SetStandardWithName("GPSLatitudeRef", LatitudeRef(lat)); err != nil {
		return fmt.Errorf("set GPSLatitudeRef: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLatitude", wireRationals(ToDMS(lat))); err != nil {
		return fmt.Errorf("set GPSLatitude: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLongitudeRef", LongitudeRef(lon)); err != nil {
		return fmt.Errorf("set GPSLongitudeRef: %w", err)
	}
	if err := gpsIb.SetStandardWithName("GPSLongitude", wireRationals(ToDMS(lon))); err != nil {
		return fmt.Errorf("set GPSLongitude: %w", err)
	}
	return nil
}

func setAltitude(gpsIb *exif.IfdBuilder, alt float64) error {
	if err := gpsIb.SetStandardWithName("GPSAltitudeRef", []byte{AltitudeRef(alt)}); err != nil {
		return fmt.Errorf("set GPSAltitudeRef: %w", err)
	}
	r := ToFixedPointRational(alt)
	if r.Num < 0 {
		r.Num = -r.Num
	}
	wire := []exifcommon.Rational{{Numerator: uint32(r.Num), Denominator: r.Den}}
	if err := gpsIb.SetStandardWithName("GPSAltitude", wire); err != nil {
		return fmt.Errorf("set GPSAltitude: %w", err)
	}
	return nil
}

// wireRationals converts a DMS triple to the unsigned on-wire rationals
// the GPS tags expect. DMS magnitudes are non-negative by construction.
func wireRationals(dms [3]core.Rational) []exifcommon.Rational {
	out := make([]exifcommon.Rational, len(dms))
	for i, r := range dms {
		out[i] = exifcommon.Rational{Numerator: uint32(r.Num), Denominator: r.Den}
	}
	return out
}
