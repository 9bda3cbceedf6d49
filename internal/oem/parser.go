package oem

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// xmlDocument mirrors the NDM/OEM envelope down to the single segment
// the ISS feed carries.
type xmlDocument struct {
	XMLName xml.Name `xml:"ndm"`
	OEM     struct {
		Header xmlKVBlock `xml:"header"`
		Body   struct {
			Segment struct {
				Metadata xmlKVBlock `xml:"metadata"`
				Data     struct {
					Comments     []string         `xml:"COMMENT"`
					StateVectors []xmlStateVector `xml:"stateVector"`
				} `xml:"data"`
			} `xml:"segment"`
		} `xml:"body"`
	} `xml:"oem"`
}

// xmlKVBlock captures an element's children as ordered key/value pairs
// without committing to a fixed schema. The OEM header and metadata
// blocks vary between producers.
type xmlKVBlock struct {
	Entries []xmlKVEntry `xml:",any"`
}

type xmlKVEntry struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

type xmlStateVector struct {
	Epoch string `xml:"EPOCH"`
	X     string `xml:"X"`
	Y     string `xml:"Y"`
	Z     string `xml:"Z"`
	XDot  string `xml:"X_DOT"`
	YDot  string `xml:"Y_DOT"`
	ZDot  string `xml:"Z_DOT"`
}

// Parse decodes a raw OEM document into a Dataset. When sidecar is true
// the header, metadata, and comment blocks are retained, with any value
// matching the epoch timestamp format converted to a true instant.
//
// A document without state vectors, or with a state vector missing any
// required field, is an error.
func Parse(raw []byte, sidecar bool) (*Dataset, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid data format: %w", err)
	}

	vectors := doc.OEM.Body.Segment.Data.StateVectors
	if len(vectors) == 0 {
		return nil, fmt.Errorf("invalid data format: no state vectors in document")
	}

	ds := &Dataset{
		StateVectors: make([]StateVector, 0, len(vectors)),
	}

	for i, v := range vectors {
		sv, err := parseStateVector(v)
		if err != nil {
			return nil, fmt.Errorf("invalid data format: state vector %d: %w", i, err)
		}
		ds.StateVectors = append(ds.StateVectors, sv)
	}

	if sidecar {
		ds.Header = parseKVBlock(doc.OEM.Header)
		ds.Metadata = parseKVBlock(doc.OEM.Body.Segment.Metadata)
		ds.Comments = doc.OEM.Body.Segment.Data.Comments
	}

	return ds, nil
}

func parseStateVector(v xmlStateVector) (StateVector, error) {
	epoch := strings.TrimSpace(v.Epoch)
	if epoch == "" {
		return StateVector{}, fmt.Errorf("missing EPOCH")
	}
	ts, err := ParseTimestamp(epoch)
	if err != nil {
		return StateVector{}, err
	}

	sv := StateVector{Timestamp: ts}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"X", v.X, &sv.X},
		{"Y", v.Y, &sv.Y},
		{"Z", v.Z, &sv.Z},
		{"X_DOT", v.XDot, &sv.DX},
		{"Y_DOT", v.YDot, &sv.DY},
		{"Z_DOT", v.ZDot, &sv.DZ},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			return StateVector{}, fmt.Errorf("missing %s", f.name)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return StateVector{}, fmt.Errorf("parsing %s %q: %w", f.name, raw, err)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return StateVector{}, fmt.Errorf("non-finite %s value %q", f.name, raw)
		}
		*f.dst = val
	}

	return sv, nil
}

// parseKVBlock converts a header or metadata block into a value map,
// promoting timestamp-shaped values to instants. Unparseable
// timestamp-shaped values fall back to plain text.
func parseKVBlock(block xmlKVBlock) map[string]Value {
	m := make(map[string]Value, len(block.Entries))
	for _, e := range block.Entries {
		text := strings.TrimSpace(e.Text)
		v := Value{Text: text}
		if timestampPattern.MatchString(text) {
			if ts, err := ParseTimestamp(text); err == nil {
				v.Time = ts
			}
		}
		m[e.XMLName.Local] = v
	}
	return m
}
