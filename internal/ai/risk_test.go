package ai

import (
	"context"
	"testing"
	"time"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/models"

	"github.com/stretchr/testify/require"
)

func TestOverallRiskScore(t *testing.T) {
	factors := []RiskFactor{
		{Probability: 0.8, Impact: 8},
		{Probability: 0.5, Impact: 4},
	}
	// (0.8*8 + 0.5*4) / (10*2) = 0.42
	require.Equal(t, 42, OverallRiskScore(factors))
	require.Equal(t, 0, OverallRiskScore(nil))
	require.Equal(t, 100, OverallRiskScore([]RiskFactor{{Probability: 1, Impact: 10}}))
}

func TestRiskLevelFor(t *testing.T) {
	require.Equal(t, models.RiskLow, RiskLevelFor(0))
	require.Equal(t, models.RiskLow, RiskLevelFor(24))
	require.Equal(t, models.RiskMedium, RiskLevelFor(25))
	require.Equal(t, models.RiskMedium, RiskLevelFor(42))
	require.Equal(t, models.RiskHigh, RiskLevelFor(50))
	require.Equal(t, models.RiskCritical, RiskLevelFor(75))
	require.Equal(t, models.RiskCritical, RiskLevelFor(100))
}

func TestNextReviewDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, now.AddDate(0, 0, 7), NextReviewDate(models.RiskCritical, now))
	require.Equal(t, now.AddDate(0, 0, 14), NextReviewDate(models.RiskHigh, now))
	require.Equal(t, now.AddDate(0, 0, 30), NextReviewDate(models.RiskMedium, now))
	require.Equal(t, now.AddDate(0, 0, 90), NextReviewDate(models.RiskLow, now))
}

func TestAssessSupplierRiskDisabled(t *testing.T) {
	service := NewService(config.AIConfig{RiskAssessment: false}, nil)

	_, err := service.AssessSupplierRisk(context.Background(), &models.Supplier{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestAssessSupplierRiskRuleBased(t *testing.T) {
	service := NewService(config.AIConfig{RiskAssessment: true}, nil)

	supplier := &models.Supplier{
		Base: models.Base{ID: "sup-1"},
		Certifications: models.Certifications{
			ISO9001:   true,
			IATF16949: false,
		},
		BatteryExperience:    models.BatteryExperience{HasExperience: true},
		AutomotiveExperience: models.AutomotiveExperience{HasExperience: true},
	}

	assessment, err := service.AssessSupplierRisk(context.Background(), supplier)
	require.NoError(t, err)
	require.NotEmpty(t, assessment.Factors)
	require.Equal(t, RiskLevelFor(assessment.Score), assessment.Level)
	require.Empty(t, assessment.Narrative)
	require.True(t, assessment.NextReviewDate.After(time.Now()))

	var categories []string
	for _, f := range assessment.Factors {
		categories = append(categories, f.Category)
	}
	require.Contains(t, categories, "quality")
}
