package models

import "github.com/pinpoint/pinpoint/backend/go-services/internal/document"

// PinPoint attaches a caption and a piece of media to a pin. Media is either an
// object key in the media bucket or an external reference kept as given.
type PinPoint struct {
	document.Base `bson:",inline"`
	Pin           string `bson:"pin" json:"pin"`
	User          string `bson:"user" json:"user"`
	Caption       string `bson:"caption" json:"caption"`
	Media         string `bson:"media" json:"media"`
}
