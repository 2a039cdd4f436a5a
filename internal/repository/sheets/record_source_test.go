package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	args := m.Called(ctx, sheetRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]interface{}), args.Error(1)
}

func koreanHeader() []interface{} {
	return []interface{}{
		"관리번호", "제품코드", "제품명", "매출년월", "매출수량", "총매출액",
		"부자재 매출단가", "부자재 매입단가", "단가차이", "차이총액",
		"영업담당", "마감담당", "구매담당", "고객코드", "고객명", "고객약칭",
		"상태", "비고", "수정일",
	}
}

func TestRecordSource_LoadRecords(t *testing.T) {
	t.Run("maps ledger rows with formatted values", func(t *testing.T) {
		repo := new(MockRepository)
		rows := [][]interface{}{
			koreanHeader(),
			{"SV-1", "FG-1", "김 선물세트", "2026.01", "1,200 EA", "₩30,000,000", "850", "920", "70", "₩84,000",
				"김민수", "이서연", "박지훈", "C1001", "(주)한빛유통", "한빛", "미완료", "", "2026-02-20"},
			{"", "", ""},
			// Sheets drops trailing empty cells.
			{"SV-2", "FG-2", "Olive Oil", "202602", "10", "", "", "", "5", "50", "", "", "", "", "Green Table", "", "완료"},
		}
		repo.On("ReadRange", mock.Anything, "Variance!A:S").Return(rows, nil).Once()

		src := NewRecordSource(repo, "Variance!A:S", nil)
		records, err := src.LoadRecords(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)

		first := records[0]
		assert.Equal(t, "SV-1", first.ID)
		assert.Equal(t, "2026-01", first.SalesYearMonth)
		assert.Equal(t, int64(1200), first.SalesQuantity)
		assert.True(t, first.TotalSalesPrice.Equal(decimal.NewFromInt(30000000)))
		assert.True(t, first.TotalDifference.Equal(decimal.NewFromInt(84000)))
		assert.Equal(t, "(주)한빛유통", first.CustomerName)
		assert.Equal(t, models.StatusIncomplete, first.Status)
		assert.Equal(t, "2026-02-20", first.UpdatedAt)

		second := records[1]
		assert.Equal(t, "2026-02", second.SalesYearMonth)
		assert.Equal(t, models.StatusCompleted, second.Status)
		assert.True(t, second.TotalSalesPrice.IsZero())
		assert.Empty(t, second.UpdatedAt)

		assert.NoError(t, models.ValidateRecords(records))
		repo.AssertExpectations(t)
	})

	t.Run("accepts english headers in any order", func(t *testing.T) {
		repo := new(MockRepository)
		rows := [][]interface{}{
			{"Status", "Total Difference", "product_name", "productCode", "ID", "salesYearMonth", "salesQuantity"},
			{"COMPLETED", "-1500.5", "Tray", "T-1", "x1", "2026-03", "3"},
		}
		repo.On("ReadRange", mock.Anything, "R").Return(rows, nil).Once()

		records, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "x1", records[0].ID)
		assert.True(t, records[0].TotalDifference.Equal(decimal.RequireFromString("-1500.5")))
	})

	t.Run("returns nothing for an empty range", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ReadRange", mock.Anything, "R").Return([][]interface{}{}, nil).Once()

		records, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("fails on a missing required column", func(t *testing.T) {
		repo := new(MockRepository)
		rows := [][]interface{}{{"id", "productCode", "productName"}}
		repo.On("ReadRange", mock.Anything, "R").Return(rows, nil).Once()

		_, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("fails on an unknown status and names the row", func(t *testing.T) {
		repo := new(MockRepository)
		rows := [][]interface{}{
			koreanHeader(),
			{"SV-1", "FG-1", "A", "2026-01", "1", "", "", "", "", "0", "", "", "", "", "", "", "보류"},
		}
		repo.On("ReadRange", mock.Anything, "R").Return(rows, nil).Once()

		_, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		assert.ErrorIs(t, err, models.ErrUnknownStatus)
		assert.Contains(t, err.Error(), "sheet row 2")
	})

	t.Run("fails on a non numeric quantity", func(t *testing.T) {
		repo := new(MockRepository)
		rows := [][]interface{}{
			koreanHeader(),
			{"SV-1", "FG-1", "A", "2026-01", "many", "", "", "", "", "0", "", "", "", "", "", "", "완료"},
		}
		repo.On("ReadRange", mock.Anything, "R").Return(rows, nil).Once()

		_, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "salesQuantity")
	})

	t.Run("propagates read errors", func(t *testing.T) {
		repo := new(MockRepository)
		boom := errors.New("quota exceeded")
		repo.On("ReadRange", mock.Anything, "R").Return(nil, boom).Once()

		_, err := NewRecordSource(repo, "R", nil).LoadRecords(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}
