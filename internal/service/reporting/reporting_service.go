package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/erp-tools/subvariance/internal/domain/models"
	"github.com/erp-tools/subvariance/internal/service/dashboard"
)

const (
	dateLayout       = "2006-01-02"
	topCustomerLimit = 3
)

// DashboardReader is the subset of the dashboard controller the reports read from.
type DashboardReader interface {
	Records() []models.Record
}

// CustomerExposure is the outstanding difference attributed to one customer.
type CustomerExposure struct {
	CustomerCode string          `json:"customerCode"`
	CustomerAbbr string          `json:"customerAbbr"`
	Records      int             `json:"records"`
	Amount       decimal.Decimal `json:"amount"`
}

// Service exposes lightweight summaries for scheduled notifications.
type Service struct {
	dashboard DashboardReader
	printer   *message.Printer
	logger    *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(dashboard DashboardReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dashboard: dashboard,
		printer:   message.NewPrinter(language.Korean),
		logger:    logger,
	}
}

// FormatWon renders an amount with a won sign and thousands separators.
// Whole amounts have no decimals, others are rounded to two places.
func (s *Service) FormatWon(amount decimal.Decimal) string {
	var places int32
	if !amount.Equal(amount.Truncate(0)) {
		places = 2
	}
	return "₩" + groupThousands(amount.StringFixed(places))
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	digits, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		digits, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + frac
}

// OutstandingByCustomer groups incomplete records by customer code, largest
// amount first. Ties keep first-seen order.
func (s *Service) OutstandingByCustomer() []CustomerExposure {
	return outstandingByCustomer(s.dashboard.Records())
}

func outstandingByCustomer(records []models.Record) []CustomerExposure {
	var order []string
	byCode := make(map[string]*CustomerExposure)

	for _, r := range records {
		if r.Status != models.StatusIncomplete {
			continue
		}
		exp, ok := byCode[r.CustomerCode]
		if !ok {
			exp = &CustomerExposure{CustomerCode: r.CustomerCode, CustomerAbbr: r.CustomerAbbr, Amount: decimal.Zero}
			byCode[r.CustomerCode] = exp
			order = append(order, r.CustomerCode)
		}
		exp.Records++
		exp.Amount = exp.Amount.Add(r.TotalDifference)
	}

	out := make([]CustomerExposure, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})

	return out
}

// Summary builds the daily variance message sent to the purchasing and marketing channels.
// Totals and customer lines come from one read of the collection.
func (s *Service) Summary(now time.Time) string {
	records := s.dashboard.Records()
	stats := dashboard.ComputeStatistics(records)

	var b strings.Builder
	s.printer.Fprintf(&b, "부자재 단차 현황 (%s)\n", now.Format(dateLayout))
	s.printer.Fprintf(&b, "미완료 %d건 / 완료 %d건\n", stats.IncompleteCount, stats.CompletedCount)
	s.printer.Fprintf(&b, "총 차이 금액 (미완료): %s", s.FormatWon(stats.TotalDifferenceAmount))

	top := outstandingByCustomer(records)
	if len(top) > topCustomerLimit {
		top = top[:topCustomerLimit]
	}
	for i, exp := range top {
		s.printer.Fprintf(&b, "\n%d. %s (%s) %d건 %s", i+1, exp.CustomerAbbr, exp.CustomerCode, exp.Records, s.FormatWon(exp.Amount))
	}

	s.logger.Debug("summary built",
		zap.Int("incomplete", stats.IncompleteCount),
		zap.String("amount", stats.TotalDifferenceAmount.String()))

	return b.String()
}
