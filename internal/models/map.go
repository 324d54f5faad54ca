package models

import "github.com/pinpoint/pinpoint/backend/go-services/internal/document"

// Map is owned by one user and groups the locations selected on it and the
// pins dropped on it. CurrLocation is empty when nothing is selected.
type Map struct {
	document.Base `bson:",inline"`
	Owner         string   `bson:"owner" json:"owner"`
	Locations     []string `bson:"locations" json:"locations"`
	Pins          []string `bson:"pins" json:"pins"`
	CurrLocation  string   `bson:"currLocation" json:"currLocation"`
}

// Location is a coordinate pair, shared between maps.
type Location struct {
	document.Base `bson:",inline"`
	X             float64 `bson:"x" json:"x"`
	Y             float64 `bson:"y" json:"y"`
	Name          string  `bson:"name,omitempty" json:"name,omitempty"`
}

// Pin marks a location on a map.
type Pin struct {
	document.Base `bson:",inline"`
	Map           string `bson:"map" json:"map"`
	Location      string `bson:"location" json:"location"`
	Owner         string `bson:"owner" json:"owner"`
}
