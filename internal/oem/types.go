package oem

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"
)

// TimestampLayout is the epoch format used throughout the NASA OEM feed:
// year, zero-padded day of year, and time with millisecond precision.
const TimestampLayout = "2006-002T15:04:05.000Z"

// timestampPattern matches sidecar values that carry an epoch in the
// feed's timestamp format.
var timestampPattern = regexp.MustCompile(`^\d\d\d\d-\d\d\dT\d\d:\d\d:\d\d\.\d\d\dZ$`)

// ParseTimestamp parses an epoch string in the feed's day-of-year format.
// The result is always UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing epoch timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// StateVector is one ephemeris sample: a timestamped position and
// velocity in the Earth-centered inertial (J2000) frame.
// Units are kilometers and kilometers per second.
type StateVector struct {
	Timestamp time.Time `json:"timestamp"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	DX        float64   `json:"dx"`
	DY        float64   `json:"dy"`
	DZ        float64   `json:"dz"`
}

// MarshalJSON renders the timestamp in the feed's day-of-year format
// rather than RFC 3339, matching what clients see in the raw feed.
func (sv StateVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string  `json:"timestamp"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Z         float64 `json:"z"`
		DX        float64 `json:"dx"`
		DY        float64 `json:"dy"`
		DZ        float64 `json:"dz"`
	}{sv.Timestamp.UTC().Format(TimestampLayout), sv.X, sv.Y, sv.Z, sv.DX, sv.DY, sv.DZ})
}

// Speed returns the magnitude of the velocity vector in km/s.
func (sv *StateVector) Speed() float64 {
	return math.Sqrt(sv.DX*sv.DX + sv.DY*sv.DY + sv.DZ*sv.DZ)
}

// Value is a sidecar header or metadata value. Feed values matching the
// epoch timestamp format are parsed into instants; everything else stays
// plain text.
type Value struct {
	Text string
	Time time.Time
}

// IsTime reports whether the value carries a parsed instant.
func (v Value) IsTime() bool {
	return !v.Time.IsZero()
}

// MarshalJSON renders parsed instants back in the feed's timestamp
// format and plain values as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	s := v.Text
	if v.IsTime() {
		s = v.Time.UTC().Format(TimestampLayout)
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

// Dataset is one fetch of the upstream ephemeris: the state vector
// sequence in feed order plus, under the sidecar profile, the OEM
// header, segment metadata, and free-text comments.
//
// The sequence carries no ordering guarantee. Consumers index it by
// position or by exact timestamp equality only.
type Dataset struct {
	StateVectors []StateVector
	Header       map[string]Value
	Metadata     map[string]Value
	Comments     []string
}

// Len returns the number of state vectors in the dataset.
func (d *Dataset) Len() int {
	return len(d.StateVectors)
}
