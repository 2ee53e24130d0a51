package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType is the role attached to a user account. Permissions are derived
// from it; see role.go.
type UserType string

const (
	UserTypeAdmin     UserType = "admin"
	UserTypeSales     UserType = "sales"
	UserTypeLogistics UserType = "logistics"
	UserTypeCustomer  UserType = "customer"
)

func (t UserType) String() string {
	return string(t)
}

// User represents any account in the system: staff, drivers and customers.
// Customers created implicitly during order capture have no password hash.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	UserType     UserType           `bson:"userType" json:"userType"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
