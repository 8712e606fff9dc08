/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/suparena/modelstore/errors"
)

// RatingSystem is keyed through an index map instead of PrimaryKey.
type RatingSystem struct {

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt,omitempty"`
}

// RatingSystemIndexMap keys rating systems by their identifier.
var RatingSystemIndexMap = map[string]string{
	"PK": "RATING#{ID}",
}

// Validate validates this rating system
func (m *RatingSystem) Validate(formats strfmt.Registry) error {
	if m.ID == nil || *m.ID == "" {
		return errors.NewValidationError("Id", "is required")
	}
	if m.Name == nil {
		return errors.NewValidationError("Name", "is required")
	}
	return nil
}
