package gps

import "time"

// Fix is the latest combined GPS fix.
type Fix struct {
	Time       time.Time `json:"time"`        // UTC from RMC date and time
	Latitude   float64   `json:"lat"`         // decimal degrees
	Longitude  float64   `json:"lon"`         // decimal degrees
	SpeedKnots float64   `json:"speed_knots"` // speed over ground
	CourseDeg  float64   `json:"course_deg"`  // course over ground
	Validity   string    `json:"validity"`    // "A" (valid) / "V" (void)
	Satellites int64     `json:"satellites"`  // from GGA
	HDOP       float64   `json:"hdop"`        // from GGA
}

// Valid reports whether the receiver flagged the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == "A" && !f.Time.IsZero()
}
