// Package locate derives a geodetic location, and optionally a
// human-readable place label, from a raw ephemeris state vector.
//
// Two resolver profiles exist. The geodetic profile applies the WGS-84
// conversion straight to the inertial position without correcting for
// Earth's rotation since epoch, a documented approximation. The
// corrected profile rotates the position into the
// Earth-fixed frame at the sample's timestamp first and then reverse
// geocodes the result. Label lookup is strictly best-effort: any
// failure degrades to an empty label.
package locate

import (
	"context"
	"log/slog"

	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/oem"
	"github.com/star/isstrack/internal/transform"
)

// Location is a resolved geodetic position with an optional place label.
// Latitude and longitude are degrees, altitude kilometers. Locstr is
// empty whenever no label could be determined.
type Location struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude float64 `json:"altitude"`
	Locstr   string  `json:"locstr"`
}

// ReverseGeocoder maps a lat/lon to a best-effort address. A nil
// result with a nil error means "no place found there" (open ocean).
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// Address is a reverse-geocoding result. DisplayName is the flat
// address string; the structured fields are present best-effort.
type Address struct {
	DisplayName  string
	City         string
	Municipality string
	Country      string
}

// Resolver converts state vectors to locations under one profile.
type Resolver struct {
	corrected bool
	geocoder  ReverseGeocoder
	logger    *slog.Logger
}

// NewGeodeticResolver creates the uncorrected, label-free resolver.
func NewGeodeticResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// NewCorrectedResolver creates the Earth-rotation-corrected resolver.
// geocoder may be nil to disable label lookup.
func NewCorrectedResolver(geocoder ReverseGeocoder, logger *slog.Logger) *Resolver {
	return &Resolver{corrected: true, geocoder: geocoder, logger: logger}
}

// Resolve derives the location for a state vector. It never fails:
// the coordinate math is total, and label lookup degrades to an empty
// string with a warning log on any error.
func (r *Resolver) Resolve(ctx context.Context, sv *oem.StateVector) Location {
	x, y, z := sv.X, sv.Y, sv.Z
	if r.corrected {
		x, y, z = transform.ECIToECEF(x, y, z, sv.Timestamp)
	}
	point := transform.ECEFToGeodetic(x, y, z)

	loc := Location{
		Lat:      point.LatDeg,
		Lon:      point.LonDeg,
		Altitude: point.AltKm,
	}
	if r.corrected && r.geocoder != nil {
		loc.Locstr = r.lookupLabel(ctx, point.LatDeg, point.LonDeg)
	}
	return loc
}

// lookupLabel runs the reverse-geocoding query. A flat address string
// is used verbatim; otherwise the label is composed from the
// structured fields that are present.
func (r *Resolver) lookupLabel(ctx context.Context, lat, lon float64) string {
	addr, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		metrics.IncGeocodeFailures()
		r.logger.Warn("reverse geocoding failed", "component", "locate", "error", err)
		return ""
	}
	if addr == nil {
		return ""
	}
	if addr.City == "" && addr.Municipality == "" && addr.Country == "" {
		return addr.DisplayName
	}
	return addr.City + ", " + addr.Municipality + ", " + addr.Country
}
