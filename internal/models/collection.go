package models

import "github.com/pinpoint/pinpoint/backend/go-services/internal/document"

// Collection is a named, shared set of pins. Users lists every member,
// including the owner.
type Collection struct {
	document.Base `bson:",inline"`
	Name          string   `bson:"name" json:"name"`
	Owner         string   `bson:"owner" json:"owner"`
	Users         []string `bson:"users" json:"users"`
	Pins          []string `bson:"pins" json:"pins"`
}
