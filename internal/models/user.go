package models

import "github.com/pinpoint/pinpoint/backend/go-services/internal/document"

// User is an account. Password holds the bcrypt hash and is never serialized to clients.
type User struct {
	document.Base `bson:",inline"`
	Username      string `bson:"username" json:"username"`
	Password      string `bson:"password" json:"-"`
}
