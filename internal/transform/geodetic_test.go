package transform

import (
	"math"
	"testing"
	"time"
)

// TestGMSTJ2000 checks GMST against the published value at the J2000.0
// epoch (280.46062 degrees).
func TestGMSTJ2000(t *testing.T) {
	j2000Epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	got := GMST(j2000Epoch) * 180.0 / math.Pi
	want := 280.46062
	if math.Abs(got-want) > 0.01 {
		t.Errorf("GMST(J2000) = %v deg, want %v", got, want)
	}
}

// TestJulianDateKnown checks the Julian Date conversion against a
// known reference instant.
func TestJulianDateKnown(t *testing.T) {
	// J2000.0: JD 2451545.0.
	jd := JulianDate(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(jd-2451545.0) > 1e-6 {
		t.Errorf("JulianDate(J2000) = %v, want 2451545.0", jd)
	}
}

// TestECEFToGeodeticEquator verifies a point on the equatorial axis.
func TestECEFToGeodeticEquator(t *testing.T) {
	p := ECEFToGeodetic(6378.137+420, 0, 0)
	if math.Abs(p.LatDeg) > 1e-9 {
		t.Errorf("lat = %v, want 0", p.LatDeg)
	}
	if math.Abs(p.LonDeg) > 1e-9 {
		t.Errorf("lon = %v, want 0", p.LonDeg)
	}
	if math.Abs(p.AltKm-420) > 1e-6 {
		t.Errorf("alt = %v, want 420", p.AltKm)
	}
}

// TestECEFToGeodeticPole verifies the polar branch of the altitude
// computation.
func TestECEFToGeodeticPole(t *testing.T) {
	const wgs84B = 6378.137 * (1 - 1.0/298.257223563)
	p := ECEFToGeodetic(0, 0, wgs84B+420)
	if math.Abs(p.LatDeg-90) > 1e-6 {
		t.Errorf("lat = %v, want 90", p.LatDeg)
	}
	if math.Abs(p.AltKm-420) > 1e-3 {
		t.Errorf("alt = %v, want 420", p.AltKm)
	}
}

// TestECIToECEFPreservesGeometry verifies the rotation is about the
// polar axis: magnitude and z are invariant, so derived latitude and
// altitude match the unrotated conversion while longitude shifts.
func TestECIToECEFPreservesGeometry(t *testing.T) {
	at := time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)
	xi, yi, zi := -4945.2, -3625.9, -2944.7

	x, y, z := ECIToECEF(xi, yi, zi, at)

	magIn := math.Sqrt(xi*xi + yi*yi + zi*zi)
	magOut := math.Sqrt(x*x + y*y + z*z)
	if math.Abs(magIn-magOut) > 1e-6 {
		t.Errorf("magnitude changed: %v -> %v", magIn, magOut)
	}
	if z != zi {
		t.Errorf("z changed: %v -> %v", zi, z)
	}

	raw := ECEFToGeodetic(xi, yi, zi)
	rot := ECEFToGeodetic(x, y, z)
	if math.Abs(raw.LatDeg-rot.LatDeg) > 1e-9 {
		t.Errorf("latitude should be invariant under the rotation: %v vs %v", raw.LatDeg, rot.LatDeg)
	}
	if math.Abs(raw.AltKm-rot.AltKm) > 1e-6 {
		t.Errorf("altitude should be invariant under the rotation: %v vs %v", raw.AltKm, rot.AltKm)
	}
	if math.Abs(raw.LonDeg-rot.LonDeg) < 1e-6 {
		t.Error("longitude should shift under the rotation")
	}
}

// TestECEFToGeodeticRoundTrip converts geodetic -> ECEF -> geodetic
// for a spread of points and checks convergence of the iteration.
func TestECEFToGeodeticRoundTrip(t *testing.T) {
	const a = 6378.137
	const e2 = wgs84E2
	cases := []struct{ lat, lon, alt float64 }{
		{0, 0, 420},
		{51.6, -0.1, 415},
		{-33.9, 151.2, 430},
		{80, 10, 400},
		{-80, -170, 400},
	}
	for _, c := range cases {
		lat := c.lat * math.Pi / 180
		lon := c.lon * math.Pi / 180
		sinLat := math.Sin(lat)
		N := a / math.Sqrt(1-e2*sinLat*sinLat)
		x := (N + c.alt) * math.Cos(lat) * math.Cos(lon)
		y := (N + c.alt) * math.Cos(lat) * math.Sin(lon)
		z := (N*(1-e2) + c.alt) * sinLat

		p := ECEFToGeodetic(x, y, z)
		if math.Abs(p.LatDeg-c.lat) > 1e-6 {
			t.Errorf("lat %v: got %v", c.lat, p.LatDeg)
		}
		if math.Abs(p.LonDeg-c.lon) > 1e-9 {
			t.Errorf("lon %v: got %v", c.lon, p.LonDeg)
		}
		if math.Abs(p.AltKm-c.alt) > 1e-3 {
			t.Errorf("alt %v: got %v", c.alt, p.AltKm)
		}
	}
}
