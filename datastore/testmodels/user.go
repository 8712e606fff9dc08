/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/modelstore/errors"
)

// User is a person with a unique email address.
type User struct {

	// Unique identifier of the user.
	// Required: true
	ID string `json:"Id"`

	// Display name.
	Name string `json:"Name,omitempty"`

	// Contact address.
	// Required: true
	// Format: email
	Email strfmt.Email `json:"Email"`

	// Age in years.
	Age int `json:"Age,omitempty"`

	// Timestamp when the user was created.
	// Format: date-time
	CreatedAt strfmt.DateTime `json:"CreatedAt,omitempty"`
}

func (m User) TableName() string { return "users" }

func (m User) PrimaryKey() string { return m.ID }

// Validate validates this user
func (m User) Validate(formats strfmt.Registry) error {
	if m.ID == "" {
		return errors.NewValidationError("Id", "is required")
	}
	if m.Email == "" {
		return errors.NewValidationError("Email", "is required")
	}
	if !formats.Validates("email", m.Email.String()) {
		return errors.NewValidationError("Email", fmt.Sprintf("%q is not a valid email address", m.Email))
	}
	return nil
}
