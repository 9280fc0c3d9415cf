package jpg

import (
	"math"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core"
)

// ToDMS converts a coordinate in decimal degrees to the EXIF
// degrees/minutes/seconds triple. It always operates on the magnitude;
// the hemisphere travels separately in the reference tag. Degrees and
// minutes are whole-number rationals, seconds a fixed-point rational so
// sub-second precision survives the encoding.
func ToDMS(coord float64) [3]core.Rational {
	a := math.Abs(coord)
	deg := math.Floor(a)
	rem := (a - deg) * 60.0
	min := math.Floor(rem)
	sec := (rem - min) * 60.0
	return [3]core.Rational{
		{Num: int32(deg), Den: 1},
		{Num: int32(min), Den: 1},
		ToFixedPointRational(sec),
	}
}

// FromDMS reconstructs decimal degrees from a DMS triple.
func FromDMS(dms [3]core.Rational) float64 {
	return dms[0].Float() + dms[1].Float()/60.0 + dms[2].Float()/3600.0
}

// ToFixedPointRational encodes a decimal value as a two-decimal-digit
// fixed-point fraction over 100. Sign is preserved in the numerator.
func ToFixedPointRational(v float64) core.Rational {
	return core.Rational{Num: int32(math.Round(v * 100.0)), Den: 100}
}

// LatitudeRef returns the EXIF hemisphere reference for a latitude.
func LatitudeRef(lat float64) string {
	if lat >= 0 {
		return "N"
	}
	return "S"
}

// LongitudeRef returns the EXIF hemisphere reference for a longitude.
func LongitudeRef(lon float64) string {
	if lon >= 0 {
		return "E"
	}
	return "W"
}

// AltitudeRef returns 0 for at-or-above sea level, 1 for below.
func AltitudeRef(alt float64) byte {
	if alt >= 0 {
		return 0
	}
	return 1
}
