package ingest

import (
	"encoding/json"
	"fmt"

	"energisense/internal/service"
)

// Payload is the wire form of a submitted reading. Older sensors send the
// value as "valor" and the sensor as "sensorId"; both map to the canonical
// names here and nowhere else.
type Payload struct {
	Value          *float64 `json:"value,omitempty"`
	Valor          *float64 `json:"valor,omitempty"`
	Type           string   `json:"type,omitempty"`
	SensorID       string   `json:"sensor_id,omitempty"`
	LegacySensorID string   `json:"sensorId,omitempty"`
}

// Input converts the payload to a service input. The canonical name wins
// when both spellings are present.
func (p Payload) Input() service.ReadingInput {
	v := p.Value
	if v == nil {
		v = p.Valor
	}
	sensor := p.SensorID
	if sensor == "" {
		sensor = p.LegacySensorID
	}
	return service.ReadingInput{Value: v, Type: p.Type, SensorID: sensor}
}

// Decode parses a JSON payload. A non-numeric value is a decode error.
func Decode(b []byte) (service.ReadingInput, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return service.ReadingInput{}, fmt.Errorf("%w: %v", service.ErrInvalidReading, err)
	}
	return p.Input(), nil
}
