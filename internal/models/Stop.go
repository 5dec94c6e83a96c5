package models

import "math"

// Position is a resolved WGS84 coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p lies inside the WGS84 coordinate range.
// (0,0) is a legitimate coordinate; resolution failures are reported as errors, never as zero values.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Stop is a student's pickup point. It only exists inside the stop list of one route.
// Seq is the storage order and reflects insertion order; it is not part of the stop's identity.
type Stop struct {
	Seq     uint `gorm:"primaryKey;autoIncrement" json:"-"`
	RouteID uint `gorm:"index;not null" json:"-"`

	StopID      string   `gorm:"index;not null" json:"id"`
	StudentName string   `json:"studentName"`
	RollNumber  string   `gorm:"index" json:"rollNumber"`
	Location    string   `json:"location"`
	Landmark    string   `json:"landmark,omitempty"`
	Time        string   `json:"time"`
	ETA         string   `json:"eta,omitempty"`
	Position    Position `gorm:"embedded;embeddedPrefix:position_" json:"position"`
}
