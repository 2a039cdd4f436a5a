package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

var fixedNow = time.Date(2026, 2, 26, 23, 30, 0, 0, time.FixedZone("KST", 9*60*60))

func fixedClock() time.Time { return fixedNow }

func record(id string, status models.Status, total int64) models.Record {
	return models.Record{
		ID:              id,
		ProductCode:     "CODE-" + id,
		ProductName:     "Product " + id,
		SalesYearMonth:  "2026-01",
		SalesQuantity:   1,
		CustomerName:    "Customer " + id,
		Status:          status,
		TotalDifference: decimal.NewFromInt(total),
		PriceDifference: decimal.NewFromInt(total),
		UpdatedAt:       "2026-01-31",
	}
}

func scenarioCollection() []models.Record {
	return []models.Record{
		record("1", models.StatusIncomplete, 500),
		record("2", models.StatusCompleted, 9999),
	}
}

func mixedCollection() []models.Record {
	recs := []models.Record{
		record("a", models.StatusIncomplete, 100),
		record("b", models.StatusCompleted, 200),
		record("c", models.StatusIncomplete, 300),
		record("d", models.StatusIncomplete, 400),
		record("e", models.StatusCompleted, 500),
	}
	recs[0].ProductName = "PE Shrink Film"
	recs[1].ProductCode = "FILM-22"
	recs[2].CustomerName = "Daehan Foods"
	recs[3].ProductName = "Corrugated Box"
	recs[4].CustomerName = "Film World"
	return recs
}

func TestScenarioA_Statistics(t *testing.T) {
	c := New(scenarioCollection())

	stats := c.Statistics()

	assert.Equal(t, 1, stats.IncompleteCount)
	assert.True(t, stats.TotalDifferenceAmount.Equal(decimal.NewFromInt(500)), stats.TotalDifferenceAmount.String())
	assert.Equal(t, 1, stats.CompletedCount)
}

func TestScenarioB_DefaultFilterShowsIncomplete(t *testing.T) {
	c := New(scenarioCollection())

	assert.Equal(t, models.StatusIncomplete, c.ActiveFilter())
	assert.Equal(t, "", c.SearchText())

	visible := c.VisibleRecords()
	require.Len(t, visible, 1)
	assert.Equal(t, "1", visible[0].ID)
}

func TestScenarioC_ToggleMovesRecordAndUpdatesStatistics(t *testing.T) {
	c := New(scenarioCollection(), WithClock(fixedClock))

	updated, err := c.ToggleStatus("1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, updated.Status)
	// 23:30 KST on the 26th is 14:30 UTC on the 26th.
	assert.Equal(t, "2026-02-26", updated.UpdatedAt)

	stats := c.Statistics()
	assert.Equal(t, 0, stats.IncompleteCount)
	assert.True(t, stats.TotalDifferenceAmount.IsZero())
	assert.Equal(t, 2, stats.CompletedCount)
	assert.Empty(t, c.VisibleRecords())
}

func TestScenarioD_ToggleUnknownID(t *testing.T) {
	c := New(scenarioCollection(), WithClock(fixedClock))
	before := c.Records()
	statsBefore := c.Statistics()

	_, err := c.ToggleStatus("nonexistent-id")

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, before, c.Records())
	assert.Equal(t, statsBefore, c.Statistics())
}

func TestUpdatedAtUsesUTCCalendarDate(t *testing.T) {
	// 08:00 KST on the 1st is still the previous day in UTC.
	early := time.Date(2026, 3, 1, 8, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	c := New(scenarioCollection(), WithClock(func() time.Time { return early }))

	updated, err := c.ToggleStatus("2")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", updated.UpdatedAt)
}

func TestFilterReturnsOnlyMatchingStatus(t *testing.T) {
	recs := mixedCollection()
	c := New(recs)

	for _, status := range []models.Status{models.StatusIncomplete, models.StatusCompleted} {
		c.SetActiveFilter(status)
		visible := c.VisibleRecords()

		want := 0
		for _, r := range recs {
			if r.Status == status {
				want++
			}
		}
		assert.Len(t, visible, want)
		for _, r := range visible {
			assert.Equal(t, status, r.Status)
		}
	}
}

func TestSearchIsCaseInsensitiveAcrossThreeFields(t *testing.T) {
	c := New(mixedCollection())

	c.SetSearchText("film")
	assert.Equal(t, []string{"a"}, ids(c.VisibleRecords()))

	c.SetActiveFilter(models.StatusCompleted)
	// product code on b, customer name on e
	assert.Equal(t, []string{"b", "e"}, ids(c.VisibleRecords()))

	c.SetActiveFilter(models.StatusIncomplete)
	c.SetSearchText("DAEHAN")
	assert.Equal(t, []string{"c"}, ids(c.VisibleRecords()))
}

func TestSearchTextIsNotTrimmed(t *testing.T) {
	c := New(mixedCollection())

	c.SetSearchText(" box")
	assert.Equal(t, []string{"d"}, ids(c.VisibleRecords()))

	c.SetSearchText("box ")
	assert.Empty(t, c.VisibleRecords())
	assert.Equal(t, "box ", c.SearchText())
}

func TestSearchSoundAndComplete(t *testing.T) {
	recs := mixedCollection()
	c := New(recs)

	for _, term := range []string{"", "o", "CODE", "film", "zzz", " "} {
		c.SetSearchText(term)
		visible := ids(c.VisibleRecords())

		var want []string
		for _, r := range recs {
			if r.Status != models.StatusIncomplete {
				continue
			}
			needle := strings.ToLower(term)
			if strings.Contains(strings.ToLower(r.ProductName), needle) ||
				strings.Contains(strings.ToLower(r.ProductCode), needle) ||
				strings.Contains(strings.ToLower(r.CustomerName), needle) {
				want = append(want, r.ID)
			}
		}
		assert.Equal(t, want, visible, "term %q", term)
	}
}

func TestDerivationsAreIdempotent(t *testing.T) {
	c := New(mixedCollection())
	c.SetSearchText("o")

	assert.Equal(t, c.VisibleRecords(), c.VisibleRecords())
	assert.Equal(t, c.Statistics(), c.Statistics())
	assert.Equal(t, c.View(), c.View())
}

func TestFilterPreservesOrderAcrossToggles(t *testing.T) {
	c := New(mixedCollection(), WithClock(fixedClock))

	assert.Equal(t, []string{"a", "c", "d"}, ids(c.VisibleRecords()))

	_, err := c.ToggleStatus("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(c.VisibleRecords()))

	_, err = c.ToggleStatus("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, ids(c.VisibleRecords()))
}

func TestStatisticsConsistency(t *testing.T) {
	c := New(mixedCollection(), WithClock(fixedClock))

	check := func() {
		recs := c.Records()
		stats := c.Statistics()

		completed := 0
		sum := decimal.Zero
		for _, r := range recs {
			if r.Status == models.StatusCompleted {
				completed++
				continue
			}
			sum = sum.Add(r.TotalDifference)
		}
		assert.Equal(t, len(recs), stats.IncompleteCount+stats.CompletedCount)
		assert.Equal(t, completed, stats.CompletedCount)
		assert.True(t, sum.Equal(stats.TotalDifferenceAmount))
	}

	check()
	for _, id := range []string{"a", "e", "c", "a"} {
		_, err := c.ToggleStatus(id)
		require.NoError(t, err)
		check()
	}
}

func TestStatisticsIgnoreCompletedAmounts(t *testing.T) {
	recs := scenarioCollection()
	recs[1].TotalDifference = decimal.NewFromInt(123456789)

	stats := ComputeStatistics(recs)
	assert.True(t, stats.TotalDifferenceAmount.Equal(decimal.NewFromInt(500)))
}

func TestStatisticsIgnoreFilterAndSearch(t *testing.T) {
	c := New(mixedCollection())
	base := c.Statistics()

	c.SetActiveFilter(models.StatusCompleted)
	c.SetSearchText("nothing matches this")

	assert.Equal(t, base, c.Statistics())
}

func TestToggleInvolutionAndIsolation(t *testing.T) {
	original := mixedCollection()
	c := New(original, WithClock(fixedClock))

	_, err := c.ToggleStatus("c")
	require.NoError(t, err)
	after := c.Records()

	for i := range original {
		if original[i].ID == "c" {
			assert.Equal(t, models.StatusCompleted, after[i].Status)
			continue
		}
		assert.Equal(t, original[i], after[i])
	}

	_, err = c.ToggleStatus("c")
	require.NoError(t, err)
	again := c.Records()

	for i := range original {
		want := original[i]
		if want.ID == "c" {
			want.UpdatedAt = "2026-02-26"
		}
		assert.Equal(t, want, again[i])
	}
}

func TestNewCopiesInput(t *testing.T) {
	recs := scenarioCollection()
	c := New(recs)

	_, err := c.ToggleStatus("1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIncomplete, recs[0].Status)

	out := c.Records()
	out[0].ProductName = "mutated"
	assert.NotEqual(t, "mutated", c.Records()[0].ProductName)
}

func TestSubscribeReceivesStatisticsAfterToggle(t *testing.T) {
	c := New(scenarioCollection(), WithClock(fixedClock))

	var got []models.Statistics
	c.Subscribe(func(s models.Statistics) { got = append(got, s) })
	c.Subscribe(nil)

	_, err := c.ToggleStatus("1")
	require.NoError(t, err)
	_, err = c.ToggleStatus("missing")
	require.Error(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].CompletedCount)
}

func TestOverlappingTogglesDeliverLatestStatisticsLast(t *testing.T) {
	c := New([]models.Record{
		record("1", models.StatusIncomplete, 500),
		record("2", models.StatusIncomplete, 200),
	}, WithClock(fixedClock))

	var (
		mu        sync.Mutex
		delivered []models.Statistics
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	c.Subscribe(func(s models.Statistics) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := c.ToggleStatus("1")
		assert.NoError(t, err)
	}()
	<-entered

	go func() {
		defer wg.Done()
		_, err := c.ToggleStatus("2")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool {
		return c.Statistics().CompletedCount == 2
	}, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 2)
	assert.Equal(t, c.Statistics(), delivered[len(delivered)-1])
	assert.Equal(t, 0, delivered[1].IncompleteCount)
	assert.True(t, delivered[1].TotalDifferenceAmount.IsZero())
}

func TestListenerMayReadController(t *testing.T) {
	c := New(scenarioCollection(), WithClock(fixedClock))

	var seen models.Record
	c.Subscribe(func(models.Statistics) { seen = c.Records()[0] })

	_, err := c.ToggleStatus("1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, seen.Status)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) LoadRecords(ctx context.Context) ([]models.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Record), args.Error(1)
}

func TestLoad(t *testing.T) {
	t.Run("builds a controller from a valid source", func(t *testing.T) {
		src := new(mockSource)
		src.On("LoadRecords", mock.Anything).Return(scenarioCollection(), nil).Once()

		c, err := Load(context.Background(), src)
		require.NoError(t, err)
		assert.Len(t, c.Records(), 2)
		src.AssertExpectations(t)
	})

	t.Run("fails fast on invalid records", func(t *testing.T) {
		recs := scenarioCollection()
		recs[1].ID = "1"
		src := new(mockSource)
		src.On("LoadRecords", mock.Anything).Return(recs, nil).Once()

		_, err := Load(context.Background(), src)
		assert.ErrorIs(t, err, models.ErrInvalidRecord)
	})

	t.Run("rejects a status outside the enumeration", func(t *testing.T) {
		recs := scenarioCollection()
		recs[1].Status = models.Status(2)
		src := new(mockSource)
		src.On("LoadRecords", mock.Anything).Return(recs, nil).Once()

		c, err := Load(context.Background(), src)
		assert.ErrorIs(t, err, models.ErrInvalidRecord)
		assert.Nil(t, c)
	})

	t.Run("propagates source errors", func(t *testing.T) {
		boom := errors.New("sheet unavailable")
		src := new(mockSource)
		src.On("LoadRecords", mock.Anything).Return(nil, boom).Once()

		_, err := Load(context.Background(), src)
		assert.ErrorIs(t, err, boom)
	})
}

func ids(recs []models.Record) []string {
	var out []string
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
