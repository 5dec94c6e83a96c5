package models

import (
	"gorm.io/gorm"
)

// Capacity is the coarse load level reported for a bus.
type Capacity string

const (
	CapacityLow    Capacity = "Low"
	CapacityMedium Capacity = "Medium"
	CapacityFull   Capacity = "Full"
)

// Valid reports whether c is one of the known capacity levels.
func (c Capacity) Valid() bool {
	switch c {
	case CapacityLow, CapacityMedium, CapacityFull:
		return true
	}
	return false
}

// Route is a shuttle service run by one bus. It owns its ordered list of stops;
// deleting a route deletes every stop on it.
type Route struct {
	gorm.Model

	Name         string   `json:"name"`
	BusNumber    string   `json:"busNumber"`
	DriverName   string   `json:"driverName"`
	DriverMobile string   `json:"driverMobile"`
	Capacity     Capacity `json:"capacity,omitempty"`

	Stops []Stop `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops"`
}

// FindStop returns the index of the stop with the given identifier, or -1.
func (r *Route) FindStop(stopID string) int {
	for i := range r.Stops {
		if r.Stops[i].StopID == stopID {
			return i
		}
	}
	return -1
}
