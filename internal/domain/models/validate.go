package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord marks a record source that violates the collection contract.
var ErrInvalidRecord = errors.New("invalid record")

// ValidationError describes the first contract violation found in a collection.
type ValidationError struct {
	Index  int
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d (id %q): %s", e.Index, e.ID, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// ValidateRecords checks required fields, identifier uniqueness and value
// ranges. It stops at the first violation.
func ValidateRecords(records []Record) error {
	seen := make(map[string]int, len(records))

	for i, r := range records {
		fail := func(reason string) error {
			return &ValidationError{Index: i, ID: r.ID, Reason: reason}
		}

		switch {
		case r.ID == "":
			return fail("id must not be empty")
		case r.ProductCode == "":
			return fail("product code must not be empty")
		case r.ProductName == "":
			return fail("product name must not be empty")
		case r.SalesQuantity < 0:
			return fail("sales quantity must not be negative")
		case r.Status != StatusIncomplete && r.Status != StatusCompleted:
			return fail(fmt.Sprintf("status %d is outside the enumeration", r.Status))
		}

		if _, err := time.Parse(YearMonthLayout, r.SalesYearMonth); err != nil {
			return fail(fmt.Sprintf("sales year-month %q is not YYYY-MM", r.SalesYearMonth))
		}

		if prev, dup := seen[r.ID]; dup {
			return fail(fmt.Sprintf("duplicate id, first seen at record %d", prev))
		}
		seen[r.ID] = i
	}

	return nil
}
