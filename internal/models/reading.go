package models

import "time"

// DefaultReadingType is the unit tag assigned when a sensor omits one.
const DefaultReadingType = "kWh"

// Reading is one timestamped energy-consumption sample.
type Reading struct {
	ID        string    `json:"id" bson:"_id"`
	SensorID  string    `json:"sensor_id,omitempty" bson:"sensor_id,omitempty"`
	Value     float64   `json:"value" bson:"value"`
	Type      string    `json:"type" bson:"type"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
