package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

type field int

const (
	fieldID field = iota
	fieldProductCode
	fieldProductName
	fieldSalesYearMonth
	fieldSalesQuantity
	fieldTotalSalesPrice
	fieldSalesPrice
	fieldPurchasePrice
	fieldPriceDifference
	fieldTotalDifference
	fieldSalesManager
	fieldClosingManager
	fieldPurchaseManager
	fieldCustomerCode
	fieldCustomerName
	fieldCustomerAbbr
	fieldStatus
	fieldNotes
	fieldUpdatedAt
)

// headerAliases maps normalized header labels (English keys and ledger labels) to fields.
var headerAliases = map[string]field{
	"id": fieldID, "번호": fieldID, "관리번호": fieldID,
	"productcode": fieldProductCode, "제품코드": fieldProductCode,
	"productname": fieldProductName, "제품명": fieldProductName,
	"salesyearmonth": fieldSalesYearMonth, "매출년월": fieldSalesYearMonth,
	"salesquantity": fieldSalesQuantity, "매출수량": fieldSalesQuantity,
	"totalsalesprice": fieldTotalSalesPrice, "총매출액": fieldTotalSalesPrice,
	"submaterialsalesprice": fieldSalesPrice, "부자재매출단가": fieldSalesPrice,
	"submaterialpurchaseprice": fieldPurchasePrice, "부자재매입단가": fieldPurchasePrice,
	"pricedifference": fieldPriceDifference, "단가차이": fieldPriceDifference,
	"totaldifference": fieldTotalDifference, "차이총액": fieldTotalDifference,
	"salesmanager": fieldSalesManager, "영업담당": fieldSalesManager,
	"closingmanager": fieldClosingManager, "마감담당": fieldClosingManager,
	"purchasemanager": fieldPurchaseManager, "구매담당": fieldPurchaseManager,
	"customercode": fieldCustomerCode, "고객코드": fieldCustomerCode,
	"customername": fieldCustomerName, "고객명": fieldCustomerName,
	"customerabbr": fieldCustomerAbbr, "고객약칭": fieldCustomerAbbr,
	"status": fieldStatus, "상태": fieldStatus,
	"notes": fieldNotes, "비고": fieldNotes,
	"updatedat": fieldUpdatedAt, "수정일": fieldUpdatedAt,
}

var requiredFields = map[field]string{
	fieldID:              "id",
	fieldProductCode:     "productCode",
	fieldProductName:     "productName",
	fieldSalesYearMonth:  "salesYearMonth",
	fieldSalesQuantity:   "salesQuantity",
	fieldTotalDifference: "totalDifference",
	fieldStatus:          "status",
}

// RecordSource loads the variance ledger from a spreadsheet range whose first
// row is a header.
type RecordSource struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger
}

// NewRecordSource wires a record source over repo.
func NewRecordSource(repo Repository, sheetRange string, logger *zap.Logger) *RecordSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordSource{repo: repo, sheetRange: sheetRange, logger: logger}
}

// LoadRecords reads the configured range and maps every non-empty row to a Record.
func (s *RecordSource) LoadRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.repo.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return nil, fmt.Errorf("load ledger range: %w", err)
	}

	records, err := parseRecords(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ledger rows mapped", zap.String("range", s.sheetRange), zap.Int("records", len(records)))
	return records, nil
}

func parseRecords(rows [][]interface{}) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		record, err := mapRow(row, columns)
		if err != nil {
			// i+2: one for the header, one for 1-based sheet rows.
			return nil, fmt.Errorf("sheet row %d: %w", i+2, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func mapHeader(header []interface{}) (map[field]int, error) {
	columns := make(map[field]int)
	for idx, cell := range header {
		key := normalizeHeader(cellString(cell))
		if f, ok := headerAliases[key]; ok {
			if _, dup := columns[f]; !dup {
				columns[f] = idx
			}
		}
	}

	for f, name := range requiredFields {
		if _, ok := columns[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	return columns, nil
}

func mapRow(row []interface{}, columns map[field]int) (models.Record, error) {
	get := func(f field) string {
		idx, ok := columns[f]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(cellString(row[idx]))
	}

	var r models.Record
	var err error

	r.ID = get(fieldID)
	r.ProductCode = get(fieldProductCode)
	r.ProductName = get(fieldProductName)
	r.SalesYearMonth = normalizeYearMonth(get(fieldSalesYearMonth))
	r.SalesManager = get(fieldSalesManager)
	r.ClosingManager = get(fieldClosingManager)
	r.PurchaseManager = get(fieldPurchaseManager)
	r.CustomerCode = get(fieldCustomerCode)
	r.CustomerName = get(fieldCustomerName)
	r.CustomerAbbr = get(fieldCustomerAbbr)
	r.Notes = get(fieldNotes)
	r.UpdatedAt = get(fieldUpdatedAt)

	if r.SalesQuantity, err = parseQuantity(get(fieldSalesQuantity)); err != nil {
		return r, fmt.Errorf("salesQuantity: %w", err)
	}

	amounts := []struct {
		f    field
		name string
		dst  *decimal.Decimal
	}{
		{fieldTotalSalesPrice, "totalSalesPrice", &r.TotalSalesPrice},
		{fieldSalesPrice, "subMaterialSalesPrice", &r.SubMaterialSalesPrice},
		{fieldPurchasePrice, "subMaterialPurchasePrice", &r.SubMaterialPurchasePrice},
		{fieldPriceDifference, "priceDifference", &r.PriceDifference},
		{fieldTotalDifference, "totalDifference", &r.TotalDifference},
	}
	for _, a := range amounts {
		if *a.dst, err = parseAmount(get(a.f)); err != nil {
			return r, fmt.Errorf("%s: %w", a.name, err)
		}
	}

	if r.Status, err = models.ParseStatus(get(fieldStatus)); err != nil {
		return r, err
	}

	return r, nil
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// cleanNumber strips the currency sign, thousands separators and unit suffixes
// that formatted sheet values carry.
func cleanNumber(s string) string {
	s = strings.NewReplacer(",", "", "₩", "", "원", "", "EA", "", " ", "").Replace(s)
	return strings.TrimSpace(s)
}

func parseQuantity(s string) (int64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = cleanNumber(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// normalizeYearMonth accepts 2026-01, 2026.01, 2026/01 and 202601.
func normalizeYearMonth(s string) string {
	s = strings.NewReplacer(".", "-", "/", "-").Replace(s)
	if len(s) == 6 && !strings.Contains(s, "-") {
		return s[:4] + "-" + s[4:]
	}
	return s
}

func isEmptyRow(row []interface{}) bool {
	for _, cell := range row {
		if strings.TrimSpace(cellString(cell)) != "" {
			return false
		}
	}
	return true
}
