package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Field names of the uniquely indexed user attributes, as stored in the
// documents and reported back on constraint violations.
const (
	FieldExternalID  = "external_id"
	FieldEmail       = "email"
	FieldPhoneNumber = "phone_number"
)

// User represents a local user account bound to an identity-provider subject.
// PhoneNumber is a pointer so that an absent phone number is absent from the
// stored document as well; the sparse unique index only applies to documents
// that carry the field.
type User struct {
	ID          bson.ObjectID `bson:"_id,omitempty"          json:"id"`
	ExternalID  string        `bson:"external_id"            json:"external_id"`
	Email       string        `bson:"email"                  json:"email"`
	DisplayName string        `bson:"display_name"           json:"display_name"`
	PhoneNumber *string       `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	CreatedAt   time.Time     `bson:"created_at"             json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"             json:"updated_at"`
}
