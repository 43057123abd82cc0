package services

import (
	"context"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/apperrors"
	"github.com/PitherGabriel/PuntodeVentaTB/models"
	"go.uber.org/zap"
)

// ReportGateway reads sales reports from the POS API.
type ReportGateway interface {
	SalesHistory(ctx context.Context, limit int) ([]models.SaleRecord, error)
	SalesSummary(ctx context.Context, date string) (*models.SalesSummary, error)
	ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error)
}

// DateLayout is the format of sale dates and report date parameters.
const DateLayout = "2006-01-02"

// SalesService serves the read-only sales reports.
type SalesService struct {
	gateway      ReportGateway
	historyLimit int
	profitReport bool
	logger       *zap.Logger
}

func NewSalesService(gateway ReportGateway, historyLimit int, profitReport bool, logger *zap.Logger) *SalesService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &SalesService{
		gateway:      gateway,
		historyLimit: historyLimit,
		profitReport: profitReport,
		logger:       logger,
	}
}

// History returns the most recent sale records; limit <= 0 uses the default.
func (s *SalesService) History(ctx context.Context, limit int) ([]models.SaleRecord, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	records, err := s.gateway.SalesHistory(ctx, limit)
	if err != nil {
		s.logger.Warn("Sales history failed", zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	return records, nil
}

// HistoryBetween returns History filtered to the inclusive date range.
func (s *SalesService) HistoryBetween(ctx context.Context, limit int, start, end string) ([]models.SaleRecord, error) {
	from, to, err := parseRange(start, end, false)
	if err != nil {
		return nil, err
	}
	records, err := s.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FilterByDate(records, from, to), nil
}

// FilterByDate keeps records dated within [start, end]. A zero bound is
// open; records whose date cannot be parsed are dropped when any bound is set.
func FilterByDate(records []models.SaleRecord, start, end time.Time) []models.SaleRecord {
	if start.IsZero() && end.IsZero() {
		return records
	}
	out := []models.SaleRecord{}
	for _, r := range records {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			continue
		}
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summary returns the summary of one day; an empty date means today on the server.
func (s *SalesService) Summary(ctx context.Context, date string) (*models.SalesSummary, error) {
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, apperrors.Validation("date must be YYYY-MM-DD")
		}
	}
	summary, err := s.gateway.SalesSummary(ctx, date)
	if err != nil {
		s.logger.Warn("Sales summary failed", zap.String("date", date), zap.Error(err))
		return nil, err
	}
	return summary, nil
}

// ProfitAnalysis returns the profitability report for period. The custom
// period needs both start and end dates.
func (s *SalesService) ProfitAnalysis(ctx context.Context, period models.ProfitPeriod, start, end string) (*models.ProfitReport, error) {
	if !s.profitReport {
		return nil, apperrors.FeatureDisabled("profit report")
	}
	if period == "" {
		period = models.PeriodToday
	}
	if !period.Valid() {
		return nil, apperrors.Validation("period must be one of today, week, month, custom")
	}
	if period == models.PeriodCustom {
		if start == "" || end == "" {
			return nil, apperrors.Validation("custom period requires start_date and end_date")
		}
		if _, _, err := parseRange(start, end, true); err != nil {
			return nil, err
		}
	}

	report, err := s.gateway.ProfitAnalysis(ctx, period, start, end)
	if err != nil {
		s.logger.Warn("Profit analysis failed", zap.String("period", string(period)), zap.Error(err))
		return nil, err
	}
	return report, nil
}

func parseRange(start, end string, required bool) (from, to time.Time, err error) {
	if start != "" || required {
		if from, err = time.Parse(DateLayout, start); err != nil {
			return from, to, apperrors.Validation("start date must be YYYY-MM-DD")
		}
	}
	if end != "" || required {
		if to, err = time.Parse(DateLayout, end); err != nil {
			return from, to, apperrors.Validation("end date must be YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, apperrors.Validation("end date is before start date")
	}
	return from, to, nil
}
