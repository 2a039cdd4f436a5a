package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DateLayout is the date-only format used for Record.UpdatedAt.
const DateLayout = "2006-01-02"

// YearMonthLayout is the format used for Record.SalesYearMonth.
const YearMonthLayout = "2006-01"

// ErrUnknownStatus is returned when a status label is outside the closed enumeration.
var ErrUnknownStatus = errors.New("unknown status")

// Status is the lifecycle state of a variance line item. The zero value is
// StatusIncomplete; there are no other values.
type Status uint8

const (
	StatusIncomplete Status = iota
	StatusCompleted
)

// Toggle returns the other status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusIncomplete
	}
	return StatusCompleted
}

// String returns the canonical wire label.
func (s Status) String() string {
	if s == StatusCompleted {
		return "COMPLETED"
	}
	return "INCOMPLETE"
}

// Label returns the ledger (Korean) label shown on the dashboard.
func (s Status) Label() string {
	if s == StatusCompleted {
		return "완료"
	}
	return "미완료"
}

// ParseStatus accepts the canonical labels (case-insensitive) and the ledger labels.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INCOMPLETE", "미완료":
		return StatusIncomplete, nil
	case "COMPLETED", "완료":
		return StatusCompleted, nil
	}
	return StatusIncomplete, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// MarshalJSON encodes the status as its canonical label.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status label, rejecting values outside the enumeration.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Record is one sub-material price variance line item.
type Record struct {
	ID          string `json:"id"`
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName"`

	SalesYearMonth string `json:"salesYearMonth"`
	SalesQuantity  int64  `json:"salesQuantity"`

	TotalSalesPrice          decimal.Decimal `json:"totalSalesPrice"`
	SubMaterialSalesPrice    decimal.Decimal `json:"subMaterialSalesPrice"`
	SubMaterialPurchasePrice decimal.Decimal `json:"subMaterialPurchasePrice"`
	PriceDifference          decimal.Decimal `json:"priceDifference"`
	// TotalDifference is stored as delivered by the source, never recomputed.
	TotalDifference decimal.Decimal `json:"totalDifference"`

	SalesManager    string `json:"salesManager"`
	ClosingManager  string `json:"closingManager"`
	PurchaseManager string `json:"purchaseManager"`

	CustomerCode string `json:"customerCode"`
	CustomerName string `json:"customerName"`
	CustomerAbbr string `json:"customerAbbr"`

	Status    Status `json:"status"`
	Notes     string `json:"notes,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// ExpectedTotalDifference returns quantity × unit price difference.
func (r Record) ExpectedTotalDifference() decimal.Decimal {
	return r.PriceDifference.Mul(decimal.NewFromInt(r.SalesQuantity))
}

// HasDifferenceDrift reports whether the stored total disagrees with the unit fields.
func (r Record) HasDifferenceDrift() bool {
	return !r.TotalDifference.Equal(r.ExpectedTotalDifference())
}

// Statistics is the aggregate projection over the full record collection.
type Statistics struct {
	IncompleteCount       int             `json:"incompleteCount"`
	TotalDifferenceAmount decimal.Decimal `json:"totalDifferenceAmount"`
	CompletedCount        int             `json:"completedCount"`
}
