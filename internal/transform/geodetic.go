// Package transform provides the coordinate frame math behind location
// derivation: Earth rotation (GMST), the inertial-to-Earth-fixed
// rotation, and the WGS-84 Cartesian-to-geodetic conversion.
//
// The ECI→ECEF transform is a GMST-only R3 rotation. It ignores
// precession, nutation, and polar motion, which keeps the error well
// under a kilometer at ISS altitude.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// WGS-84 ellipsoid parameters, in kilometers to match the ephemeris units.
const (
	wgs84A  = 6378.137              // semi-major axis (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticPoint holds a geodetic position: latitude and longitude in
// degrees, altitude above the WGS-84 ellipsoid in kilometers.
type GeodeticPoint struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// ECIToECEF rotates an inertial-frame position (km) into the
// Earth-fixed frame at the given UTC instant.
//
// r_ECEF = R3(θ) * r_ECI, where θ is GMST at t.
func ECIToECEF(x, y, z float64, t time.Time) (float64, float64, float64) {
	gmst := GMST(t)
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	xECEF := x*cosG + y*sinG
	yECEF := -x*sinG + y*cosG
	return xECEF, yECEF, z
}

// ECEFToGeodetic converts an Earth-fixed Cartesian position (km) to
// geodetic coordinates using the iterative Bowring method. Converges
// in 2-3 iterations for Earth orbits.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)

	// Initial estimate using Bowring's method.
	lat := math.Atan2(z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt,
	}
}
