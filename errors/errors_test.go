/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("model", "User")

	expected := `model with key "User" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "email",
			message:  "invalid format",
			expected: `validation failed for field "email": invalid format`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestConditionFailedError(t *testing.T) {
	err := NewConditionFailedError("transact", "attribute_not_exists(PK)")

	expected := "condition check failed for transact operation: attribute_not_exists(PK)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsConditionFailed(err) {
		t.Error("IsConditionFailed should return true for ConditionFailedError")
	}
}

func TestConfigurationMissingError(t *testing.T) {
	err := NewConfigurationMissingError("testmodels.User")

	expected := "no configuration registered for testmodels.User and no default configuration set"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsConfigurationMissing(err) {
		t.Error("IsConfigurationMissing should return true")
	}
	if IsConnectionFailed(err) {
		t.Error("configuration missing must not match connection failed")
	}
}

func TestCauseUnwrapping(t *testing.T) {
	cause := NewValidationError("ID", "must not be empty")

	t.Run("TransactionFailed", func(t *testing.T) {
		err := NewTransactionFailedError("User", cause)
		if !IsTransactionFailed(err) {
			t.Fatal("expected transaction failure")
		}
		if !IsValidationError(err) {
			t.Fatal("transaction failure should unwrap to its validation cause")
		}
	})

	t.Run("ConnectionFailed", func(t *testing.T) {
		io := fmt.Errorf("open /nonexistent/db: permission denied")
		err := NewConnectionFailedError("main", io)
		if !IsConnectionFailed(err) {
			t.Fatal("expected connection failure")
		}
		if !errors.Is(err, io) {
			t.Fatal("connection failure should unwrap to its cause")
		}
	})

	t.Run("QueryFailed", func(t *testing.T) {
		err := NewQueryFailedError("User", fmt.Errorf("unknown operator"))
		if !IsQueryFailed(err) {
			t.Fatal("expected query failure")
		}
	})

	t.Run("NoDoubleWrap", func(t *testing.T) {
		inner := NewTransactionFailedError("User", cause)
		outer := NewTransactionFailedError("User", inner)
		if outer != inner {
			t.Fatal("an existing transaction failure should be returned unchanged")
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	original := NewConfigurationMissingError("User")
	wrapped := fmt.Errorf("query dispatch failed: %w", original)

	if !IsConfigurationMissing(wrapped) {
		t.Error("IsConfigurationMissing should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrConditionFailed,
		ErrNoIndexMap,
		ErrConfigurationMissing,
		ErrConnectionFailed,
		ErrQueryFailed,
		ErrTransactionFailed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
