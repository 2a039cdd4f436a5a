package dashboard

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

// FilterRecords returns, in collection order, the records whose status equals
// status and whose product name, product code or customer name contains
// search case-insensitively. search is used verbatim; the empty string
// matches every record.
func FilterRecords(records []models.Record, status models.Status, search string) []models.Record {
	needle := strings.ToLower(search)
	out := make([]models.Record, 0, len(records))

	for _, r := range records {
		if r.Status != status {
			continue
		}
		if !matchesSearch(r, needle) {
			continue
		}
		out = append(out, r)
	}

	return out
}

func matchesSearch(r models.Record, needle string) bool {
	return strings.Contains(strings.ToLower(r.ProductName), needle) ||
		strings.Contains(strings.ToLower(r.ProductCode), needle) ||
		strings.Contains(strings.ToLower(r.CustomerName), needle)
}

// ComputeStatistics aggregates the full collection. Only incomplete records
// contribute to TotalDifferenceAmount.
func ComputeStatistics(records []models.Record) models.Statistics {
	total := decimal.Zero
	incomplete := 0

	for _, r := range records {
		if r.Status != models.StatusIncomplete {
			continue
		}
		incomplete++
		total = total.Add(r.TotalDifference)
	}

	return models.Statistics{
		IncompleteCount:       incomplete,
		TotalDifferenceAmount: total,
		CompletedCount:        len(records) - incomplete,
	}
}
