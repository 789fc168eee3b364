package domain

import "time"

// Roles assignable to users.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RolePicker   = "picker"
	RoleRider    = "rider"
)

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Phone         string    `json:"phone" dynamodbav:"phone"`
	Email         *string   `json:"email,omitempty" dynamodbav:"email"`
	Name          string    `json:"name,omitempty" dynamodbav:"name"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	Role          string    `json:"role" dynamodbav:"role"`
	PhoneVerified bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	Enable        bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}
