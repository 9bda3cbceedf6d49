package transform

import (
	"math"
	"time"
)

const (
	// j2000 is the Julian Date of the J2000.0 epoch.
	j2000 = 2451545.0

	secondsPerDay       = 86400.0
	julianCenturyInDays = 36525.0
)

// JulianDate converts a UTC instant to its Julian Date using the
// Fliegel-Van Flandern style calendar arithmetic. Valid for the
// Gregorian calendar era, which covers every ephemeris this service
// will ever see.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()

	y := float64(year)
	m := float64(month)
	// January and February count as months 13 and 14 of the prior year.
	if m <= 2 {
		y--
		m += 12
	}

	century := math.Floor(y / 100)
	leapCorrection := 2 - century + math.Floor(century/4)

	jdMidnight := math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		float64(day) + leapCorrection - 1524.5

	secondOfDay := float64(t.Hour()*3600+t.Minute()*60+t.Second()) +
		float64(t.Nanosecond())/1e9
	return jdMidnight + secondOfDay/secondsPerDay
}

// GMST returns Greenwich Mean Sidereal Time in radians at the given
// UTC instant, per the IAU-82 polynomial (Vallado Eq 3-47). UT1 is
// approximated by UTC; the sub-second difference is far below the
// accuracy of the GMST-only frame rotation this feeds.
func GMST(t time.Time) float64 {
	centuries := (JulianDate(t) - j2000) / julianCenturyInDays

	// Polynomial in seconds of sidereal time. The linear coefficient is
	// 876600h expressed in seconds plus the secular term.
	sec := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*centuries +
		0.093104*centuries*centuries -
		6.2e-6*centuries*centuries*centuries

	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return sec / secondsPerDay * 2 * math.Pi
}
