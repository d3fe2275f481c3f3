package ai

import (
	"context"
	"math"
	"time"

	"example.com/tbmnc/services/tracker/internal/models"
)

const defaultForecastDays = 90

// TimelineForecast estimates when a supplier will finish qualification
type TimelineForecast struct {
	EstimatedDaysRemaining int       `json:"estimated_days_remaining"`
	EstimatedCompletionAt  time.Time `json:"estimated_completion_at"`
	DaysPerDeliverable     float64   `json:"days_per_deliverable"`
	Confidence             string    `json:"confidence"`
	BasedOnDays            int       `json:"based_on_days"`
	AsOf                   time.Time `json:"as_of"`
}

// ForecastTimeline projects completion from observed deliverable velocity:
// days spent per completed deliverable, multiplied by the remaining count.
// With nothing completed yet the forecast falls back to a flat estimate.
func (s *Service) ForecastTimeline(ctx context.Context, supplier *models.Supplier, deliverables []models.Deliverable) (*TimelineForecast, error) {
	if !s.cfg.Timeline {
		return nil, ErrDisabled
	}

	now := time.Now()
	forecast := &TimelineForecast{
		AsOf:        now,
		BasedOnDays: supplier.TotalDaysInProcess,
	}

	completed := 0
	for _, d := range deliverables {
		if d.Status == models.DeliverableCompleted {
			completed++
		}
	}
	remaining := len(deliverables) - completed

	switch {
	case len(deliverables) > 0 && remaining == 0:
		forecast.EstimatedDaysRemaining = 0
		forecast.EstimatedCompletionAt = now
		forecast.Confidence = "high"
		return forecast, nil
	case completed == 0:
		forecast.EstimatedDaysRemaining = defaultForecastDays
		forecast.Confidence = "low"
	default:
		daysPer := float64(supplier.TotalDaysInProcess) / float64(completed)
		forecast.DaysPerDeliverable = daysPer
		forecast.EstimatedDaysRemaining = int(math.Ceil(float64(remaining) * daysPer))
		forecast.Confidence = "medium"
		if supplier.TotalDaysInProcess >= 30 {
			forecast.Confidence = "high"
		}
	}

	forecast.EstimatedCompletionAt = now.AddDate(0, 0, forecast.EstimatedDaysRemaining)
	return forecast, nil
}
