package oem

import (
	"strings"
	"testing"
	"time"
)

const sampleOEM = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
 <oem id="CCSDS_OEM_VERS" version="2.0">
  <header>
   <CREATION_DATE>2024-052T04:13:46.000Z</CREATION_DATE>
   <ORIGINATOR>JSC</ORIGINATOR>
  </header>
  <body>
   <segment>
    <metadata>
     <OBJECT_NAME>ISS</OBJECT_NAME>
     <OBJECT_ID>1998-067-A</OBJECT_ID>
     <CENTER_NAME>EARTH</CENTER_NAME>
     <REF_FRAME>EME2000</REF_FRAME>
     <TIME_SYSTEM>UTC</TIME_SYSTEM>
     <START_TIME>2024-052T12:00:00.000Z</START_TIME>
     <STOP_TIME>2024-067T12:00:00.000Z</STOP_TIME>
    </metadata>
    <data>
     <COMMENT>Units are in kg and m^2</COMMENT>
     <COMMENT>MASS=473413.00</COMMENT>
     <stateVector>
      <EPOCH>2024-052T12:00:00.000Z</EPOCH>
      <X units="km">-4945.2</X>
      <Y units="km">-3625.9</Y>
      <Z units="km">-2944.7</Z>
      <X_DOT units="km/s">1.19</X_DOT>
      <Y_DOT units="km/s">-5.12</Y_DOT>
      <Z_DOT units="km/s">4.33</Z_DOT>
     </stateVector>
     <stateVector>
      <EPOCH>2024-052T12:04:00.000Z</EPOCH>
      <X units="km">-4417.3</X>
      <Y units="km">-4745.8</Y>
      <Z units="km">-1798.9</Z>
      <X_DOT units="km/s">3.18</X_DOT>
      <Y_DOT units="km/s">-4.16</Y_DOT>
      <Z_DOT units="km/s">5.08</Z_DOT>
     </stateVector>
     <stateVector>
      <EPOCH>2024-052T12:08:00.000Z</EPOCH>
      <X units="km">-3571.9</X>
      <Y units="km">-5634.3</Y>
      <Z units="km">-522.9</Z>
      <X_DOT units="km/s">4.85</X_DOT>
      <Y_DOT units="km/s">-2.77</Y_DOT>
      <Z_DOT units="km/s">5.36</Z_DOT>
     </stateVector>
    </data>
   </segment>
  </body>
 </oem>
</ndm>`

// TestParseSidecar verifies state vector extraction plus header,
// metadata, and comment retention, including the conversion of
// timestamp-shaped sidecar values into instants.
func TestParseSidecar(t *testing.T) {
	ds, err := Parse([]byte(sampleOEM), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ds.Len() != 3 {
		t.Fatalf("expected 3 state vectors, got %d", ds.Len())
	}

	first := ds.StateVectors[0]
	wantTS := time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTS) {
		t.Errorf("first timestamp = %v, want %v", first.Timestamp, wantTS)
	}
	if first.X != -4945.2 || first.Y != -3625.9 || first.Z != -2944.7 {
		t.Errorf("first position = (%v, %v, %v)", first.X, first.Y, first.Z)
	}
	if first.DX != 1.19 || first.DY != -5.12 || first.DZ != 4.33 {
		t.Errorf("first velocity = (%v, %v, %v)", first.DX, first.DY, first.DZ)
	}

	// Timestamp-shaped values become instants, others stay text.
	creation, ok := ds.Header["CREATION_DATE"]
	if !ok || !creation.IsTime() {
		t.Errorf("CREATION_DATE should be a parsed instant, got %+v", creation)
	}
	if origin := ds.Header["ORIGINATOR"]; origin.IsTime() || origin.Text != "JSC" {
		t.Errorf("ORIGINATOR should stay plain text, got %+v", origin)
	}
	startTime, ok := ds.Metadata["START_TIME"]
	if !ok || !startTime.IsTime() {
		t.Errorf("START_TIME should be a parsed instant, got %+v", startTime)
	}
	if !startTime.Time.Equal(wantTS) {
		t.Errorf("START_TIME = %v, want %v", startTime.Time, wantTS)
	}
	if name := ds.Metadata["OBJECT_NAME"]; name.Text != "ISS" {
		t.Errorf("OBJECT_NAME = %+v, want ISS", name)
	}

	if len(ds.Comments) != 2 || ds.Comments[1] != "MASS=473413.00" {
		t.Errorf("comments = %v", ds.Comments)
	}
}

// TestParsePlain verifies the non-sidecar profile drops header,
// metadata, and comments but keeps the full state vector sequence.
func TestParsePlain(t *testing.T) {
	ds, err := Parse([]byte(sampleOEM), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 state vectors, got %d", ds.Len())
	}
	if ds.Header != nil || ds.Metadata != nil || ds.Comments != nil {
		t.Errorf("sidecar data should be absent: header=%v metadata=%v comments=%v",
			ds.Header, ds.Metadata, ds.Comments)
	}
}

// TestParseRejectsMalformed covers the failure paths the cache maps to
// an upstream-unavailable state.
func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not xml"},
		{"no state vectors", `<ndm><oem><body><segment><data></data></segment></body></oem></ndm>`},
		{
			"missing velocity field",
			`<ndm><oem><body><segment><data><stateVector>
			 <EPOCH>2024-052T12:00:00.000Z</EPOCH>
			 <X>1</X><Y>2</Y><Z>3</Z><X_DOT>4</X_DOT><Y_DOT>5</Y_DOT>
			</stateVector></data></segment></body></oem></ndm>`,
		},
		{
			"bad epoch format",
			`<ndm><oem><body><segment><data><stateVector>
			 <EPOCH>2024-02-21T12:00:00.000Z</EPOCH>
			 <X>1</X><Y>2</Y><Z>3</Z><X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
			</stateVector></data></segment></body></oem></ndm>`,
		},
		{
			"non-numeric position",
			`<ndm><oem><body><segment><data><stateVector>
			 <EPOCH>2024-052T12:00:00.000Z</EPOCH>
			 <X>abc</X><Y>2</Y><Z>3</Z><X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
			</stateVector></data></segment></body></oem></ndm>`,
		},
		{
			"non-finite velocity",
			`<ndm><oem><body><segment><data><stateVector>
			 <EPOCH>2024-052T12:00:00.000Z</EPOCH>
			 <X>1</X><Y>2</Y><Z>3</Z><X_DOT>NaN</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
			</stateVector></data></segment></body></oem></ndm>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc), true); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestParseTimestampDayOfYear checks the day-of-year layout against a
// known calendar date.
func TestParseTimestampDayOfYear(t *testing.T) {
	ts, err := ParseTimestamp("2024-001T00:00:00.000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("got %v, want %v", ts, want)
	}

	ts, err = ParseTimestamp("2023-365T23:59:59.999Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = time.Date(2023, 12, 31, 23, 59, 59, 999000000, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("got %v, want %v", ts, want)
	}

	if _, err := ParseTimestamp("2024-02-21T12:00:00.000Z"); err == nil {
		t.Error("calendar-date form should not parse")
	}
	if !strings.Contains(sampleOEM, "2024-052T12:00:00.000Z") {
		t.Fatal("fixture drifted")
	}
}
