// Package geo provides geohash encoding, cell neighborhoods and
// great-circle distance for coarse-then-exact proximity queries.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/okurilov/meetradar/internal/model"
)

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

const earthRadiusMeters = 6371000.0

// DefaultPrecision yields cells of roughly 1.2 km x 0.6 km, subdivided
// further by exact-distance filtering.
const DefaultPrecision = 6

var base32Index = func() map[byte]int {
	m := make(map[byte]int, len(base32))
	for i := 0; i < len(base32); i++ {
		m[base32[i]] = i
	}
	return m
}()

// ValidateCoordinate fails fast on latitude/longitude outside the valid
// domain. Out-of-range values are a caller bug and are never clamped.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", model.ErrInvalidCoordinate, lat, lng)
	}
	return nil
}

// Encode converts a coordinate to a geohash of the given precision.
// Geographically close points share longer common prefixes. The algorithm
// interleaves longitude (even) and latitude (odd) bits, emitting one base32
// character per 5 bits.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if precision > 12 {
		precision = 12
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	var hash strings.Builder
	even := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if even {
			mid := (minLng + maxLng) / 2
			if lng >= mid {
				ch |= 1 << (4 - bit)
				minLng = mid
			} else {
				maxLng = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		even = !even
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// Decode returns the center of the cell encoded by the hash.
func Decode(hash string) (lat, lng float64) {
	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0
	even := true

	for i := 0; i < len(hash); i++ {
		cd, ok := base32Index[hash[i]]
		if !ok {
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if even {
				mid := (minLng + maxLng) / 2
				if bit == 1 {
					minLng = mid
				} else {
					maxLng = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			even = !even
		}
	}

	return (minLat + maxLat) / 2, (minLng + maxLng) / 2
}

// cellSize returns the latitude and longitude extent of a cell at the
// given precision. Longitude gets the extra bit on odd precisions.
func cellSize(precision int) (dLat, dLng float64) {
	bits := 5 * precision
	lngBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lngBits))
}

// Neighbors returns the cell itself plus all adjacent cells at the same
// precision (up to 9 keys), so a search anchored on one cell never misses
// a candidate just across a boundary. Longitude wraps at the antimeridian;
// rows beyond the poles are skipped.
func Neighbors(hash string) []string {
	if hash == "" {
		return nil
	}

	lat, lng := Decode(hash)
	dLat, dLng := cellSize(len(hash))

	keys := make([]string, 0, 9)
	seen := make(map[string]struct{}, 9)
	for _, di := range []int{0, -1, 1} {
		nLat := lat + float64(di)*dLat
		if nLat < -90 || nLat > 90 {
			continue
		}
		for _, dj := range []int{0, -1, 1} {
			nLng := lng + float64(dj)*dLng
			if nLng < -180 {
				nLng += 360
			} else if nLng > 180 {
				nLng -= 360
			}
			key := Encode(nLat, nLng, len(hash))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	return keys
}

// Distance computes the great-circle distance between two coordinates in
// meters using the haversine formula on a spherical earth. Symmetric,
// non-negative, zero for identical points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
