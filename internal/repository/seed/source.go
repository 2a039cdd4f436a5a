package seed

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

// Source serves a fixed record collection. It stands in for the ledger
// export until a real source is configured.
type Source struct {
	records []models.Record
}

// NewSource returns a Source over the built-in fixture.
func NewSource() *Source {
	return &Source{records: fixture()}
}

// NewSourceFrom returns a Source over the given records.
func NewSourceFrom(records []models.Record) *Source {
	return &Source{records: append([]models.Record(nil), records...)}
}

// LoadRecords returns a copy of the fixture.
func (s *Source) LoadRecords(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Record(nil), s.records...), nil
}

type row struct {
	id, code, name, month     string
	qty                       int64
	totalSales, sales, buy    int64
	salesMgr, closeMgr, buyer string
	custCode, cust, abbr      string
	status                    models.Status
	notes, updated            string
}

func fixture() []models.Record {
	rows := []row{
		{"SV-2601-001", "FG-10231", "프리미엄 김 선물세트 A호", "2026-01", 1200, 30000000, 850, 920, "김민수", "이서연", "박지훈", "C1001", "(주)한빛유통", "한빛", models.StatusIncomplete, "", "2026-02-20"},
		{"SV-2601-002", "FG-10457", "참기름 350ml 2입", "2026-01", 3400, 40800000, 210, 245, "김민수", "이서연", "최유나", "C1002", "대한마트 주식회사", "대한마트", models.StatusIncomplete, "단상자 단가 인상분 미반영", "2026-02-21"},
		{"SV-2601-003", "FG-20110", "Olive Oil 500ml Gift Box", "2026-01", 800, 19200000, 1500, 1580, "정우성", "이서연", "박지훈", "C2040", "Green Table Co., Ltd.", "GreenTable", models.StatusCompleted, "고객사 추가 청구 완료", "2026-02-18"},
		{"SV-2601-004", "FG-30872", "명절 한과 세트 B호", "2026-01", 560, 22400000, 2300, 2460, "한지민", "오세훈", "최유나", "C1001", "(주)한빛유통", "한빛", models.StatusIncomplete, "", "2026-02-22"},
		{"SV-2602-001", "FG-10231", "프리미엄 김 선물세트 A호", "2026-02", 950, 23750000, 850, 920, "김민수", "오세훈", "박지훈", "C3100", "해오름푸드 주식회사", "해오름", models.StatusIncomplete, "", "2026-02-25"},
		{"SV-2602-002", "FG-40015", "Shrink Film Multipack 6EA", "2026-02", 5200, 15600000, 45, 52, "정우성", "오세훈", "최유나", "C2040", "Green Table Co., Ltd.", "GreenTable", models.StatusCompleted, "단차 아님 (포장 사양 변경)", "2026-02-24"},
		{"SV-2602-003", "FG-30872", "명절 한과 세트 B호", "2026-02", 310, 12400000, 2300, 2460, "한지민", "이서연", "박지훈", "C1002", "대한마트 주식회사", "대한마트", models.StatusIncomplete, "", "2026-02-26"},
	}

	out := make([]models.Record, 0, len(rows))
	for _, r := range rows {
		sales := decimal.NewFromInt(r.sales)
		buy := decimal.NewFromInt(r.buy)
		diff := buy.Sub(sales)

		out = append(out, models.Record{
			ID:                       r.id,
			ProductCode:              r.code,
			ProductName:              r.name,
			SalesYearMonth:           r.month,
			SalesQuantity:            r.qty,
			TotalSalesPrice:          decimal.NewFromInt(r.totalSales),
			SubMaterialSalesPrice:    sales,
			SubMaterialPurchasePrice: buy,
			PriceDifference:          diff,
			TotalDifference:          diff.Mul(decimal.NewFromInt(r.qty)),
			SalesManager:             r.salesMgr,
			ClosingManager:           r.closeMgr,
			PurchaseManager:          r.buyer,
			CustomerCode:             r.custCode,
			CustomerName:             r.cust,
			CustomerAbbr:             r.abbr,
			Status:                   r.status,
			Notes:                    r.notes,
			UpdatedAt:                r.updated,
		})
	}

	return out
}
