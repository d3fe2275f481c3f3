package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/models"

	"github.com/rs/zerolog/log"
)

// RiskFactor is one contributor to a supplier's risk picture.
// Probability is in [0,1]; Impact is on a 1-10 scale.
type RiskFactor struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Probability float64 `json:"probability"`
	Impact      int     `json:"impact"`
	Mitigation  string  `json:"mitigation,omitempty"`
}

// RiskAssessment is the outcome of assessing one supplier
type RiskAssessment struct {
	Score          int              `json:"score"`
	Level          models.RiskLevel `json:"level"`
	Factors        []RiskFactor     `json:"factors"`
	Narrative      string           `json:"narrative,omitempty"`
	NextReviewDate time.Time        `json:"next_review_date"`
}

// OverallRiskScore maps factors to a 0-100 score: each factor
// contributes probability times impact, normalized by the maximum
// possible contribution.
func OverallRiskScore(factors []RiskFactor) int {
	if len(factors) == 0 {
		return 0
	}
	var sum float64
	for _, f := range factors {
		sum += f.Probability * float64(f.Impact)
	}
	return int(math.Round(100 * sum / (10 * float64(len(factors)))))
}

// RiskLevelFor converts a 0-100 score to a risk level
func RiskLevelFor(score int) models.RiskLevel {
	switch {
	case score >= 75:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 25:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// NextReviewDate schedules the follow-up review based on the level
func NextReviewDate(level models.RiskLevel, now time.Time) time.Time {
	switch level {
	case models.RiskCritical:
		return now.AddDate(0, 0, 7)
	case models.RiskHigh:
		return now.AddDate(0, 0, 14)
	case models.RiskMedium:
		return now.AddDate(0, 0, 30)
	default:
		return now.AddDate(0, 0, 90)
	}
}

// AssessSupplierRisk derives a risk assessment for a supplier. A
// configured provider adds a narrative; otherwise the rule-based
// factors stand on their own.
func (s *Service) AssessSupplierRisk(ctx context.Context, supplier *models.Supplier) (*RiskAssessment, error) {
	if !s.cfg.RiskAssessment {
		return nil, ErrDisabled
	}

	factors := deriveRiskFactors(supplier)
	score := OverallRiskScore(factors)
	level := RiskLevelFor(score)

	assessment := &RiskAssessment{
		Score:          score,
		Level:          level,
		Factors:        factors,
		NextReviewDate: NextReviewDate(level, time.Now()),
	}

	if s.enabled() {
		narrative, err := s.riskNarrative(ctx, supplier, assessment)
		if err != nil {
			log.Warn().Err(err).Str("supplier_id", supplier.ID).Msg("risk narrative unavailable, using rule-based assessment")
		} else {
			assessment.Narrative = narrative
		}
	}

	return assessment, nil
}

// deriveRiskFactors builds rule-based factors from the supplier profile
func deriveRiskFactors(supplier *models.Supplier) []RiskFactor {
	var factors []RiskFactor

	if !supplier.Certifications.IATF16949 {
		factors = append(factors, RiskFactor{
			Category:    "quality",
			Description: "Missing IATF 16949 certification",
			Probability: 0.7,
			Impact:      8,
			Mitigation:  "Begin IATF 16949 certification process",
		})
	}
	if !supplier.Certifications.ISO9001 {
		factors = append(factors, RiskFactor{
			Category:    "quality",
			Description: "Missing ISO 9001 certification",
			Probability: 0.6,
			Impact:      6,
			Mitigation:  "Obtain ISO 9001 certification",
		})
	}
	if !supplier.BatteryExperience.HasExperience {
		factors = append(factors, RiskFactor{
			Category:    "experience",
			Description: "No battery industry experience",
			Probability: 0.6,
			Impact:      7,
			Mitigation:  "Pair with an affiliate experienced in battery programs",
		})
	}
	if !supplier.AutomotiveExperience.HasExperience {
		factors = append(factors, RiskFactor{
			Category:    "experience",
			Description: "No automotive industry experience",
			Probability: 0.5,
			Impact:      6,
			Mitigation:  "Schedule automotive quality systems training",
		})
	}
	if supplier.DaysInCurrentStage > 60 {
		factors = append(factors, RiskFactor{
			Category:    "timeline",
			Description: fmt.Sprintf("Stalled in stage %d for %d days", supplier.CurrentStage, supplier.DaysInCurrentStage),
			Probability: 0.8,
			Impact:      5,
			Mitigation:  "Review stage blockers with assigned affiliates",
		})
	}
	if supplier.EmployeeCount > 0 && supplier.EmployeeCount < 50 {
		factors = append(factors, RiskFactor{
			Category:    "capacity",
			Description: "Limited workforce for automotive volumes",
			Probability: 0.4,
			Impact:      5,
		})
	}

	return factors
}

func (s *Service) riskNarrative(ctx context.Context, supplier *models.Supplier, assessment *RiskAssessment) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the qualification risk for supplier %s (stage %d, score %d, level %s) in two sentences.",
		supplier.CompanyName, supplier.CurrentStage, assessment.Score, assessment.Level,
	)
	resp, err := s.provider.Complete(ctx, []Message{
		{Role: "system", Content: "You are a supplier qualification analyst."},
		{Role: "user", Content: prompt},
	}, Options{Model: s.cfg.Model, MaxTokens: 300})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Service exposes the AI-assisted analysis features. All features
// degrade to rule-based results when no provider is configured.
type Service struct {
	cfg      config.AIConfig
	provider Provider
}

// NewService creates the AI service. provider may be nil.
func NewService(cfg config.AIConfig, provider Provider) *Service {
	return &Service{cfg: cfg, provider: provider}
}

func (s *Service) enabled() bool {
	return s.cfg.Enabled && s.provider != nil
}
