package ai

import (
	"context"
	"testing"

	"example.com/tbmnc/services/tracker/config"
	"example.com/tbmnc/services/tracker/internal/models"

	"github.com/stretchr/testify/require"
)

func TestIdentifySupplierNeeds(t *testing.T) {
	supplier := &models.Supplier{
		Certifications:       models.Certifications{ISO9001: true, IATF16949: false},
		BatteryExperience:    models.BatteryExperience{HasExperience: false},
		AutomotiveExperience: models.AutomotiveExperience{HasExperience: true},
		TechnicalCapabilities: models.TechnicalCapabilities{
			AutomationLevel: "high",
		},
		Sustainability: models.Sustainability{EnvironmentalCompliance: true},
	}

	needs := IdentifySupplierNeeds(supplier)
	require.Equal(t, []string{"quality-certification", "battery-expertise"}, needs)
}

func TestIdentifySupplierNeedsFallsBackToAdvisory(t *testing.T) {
	supplier := &models.Supplier{
		Certifications:       models.Certifications{ISO9001: true, IATF16949: true},
		BatteryExperience:    models.BatteryExperience{HasExperience: true},
		AutomotiveExperience: models.AutomotiveExperience{HasExperience: true},
		TechnicalCapabilities: models.TechnicalCapabilities{
			AutomationLevel: "medium",
		},
		Sustainability: models.Sustainability{EnvironmentalCompliance: true},
	}

	require.Equal(t, []string{"general-advisory"}, IdentifySupplierNeeds(supplier))
}

func TestMatchScore(t *testing.T) {
	needs := []string{"quality-certification", "battery-expertise"}

	affiliate := &models.Affiliate{
		Base: models.Base{ID: "aff-1"},
		ServiceOfferings: models.ServiceOfferings{
			Categories: []string{"quality-certification", "battery-expertise"},
		},
		Capacity: models.Capacity{CurrentLoad: 0, MaxCapacity: 5},
		Performance: models.Performance{
			AverageRating:      5,
			OnTimeDeliveryRate: 1,
			TotalRatings:       10,
		},
		Expertise: models.Expertise{
			ToyotaExperience:   true,
			IndustryExperience: models.IndustryExperience{Automotive: 10, Battery: 5},
		},
	}

	score, reasons := MatchScore(needs, affiliate)
	require.Equal(t, 100, score)
	require.Contains(t, reasons, "covers identified needs")
	require.Contains(t, reasons, "has open capacity")
	require.Contains(t, reasons, "strong performance history")
	require.Contains(t, reasons, "prior OEM program experience")
}

func TestMatchScorePartialCoverage(t *testing.T) {
	needs := []string{"quality-certification", "battery-expertise"}

	affiliate := &models.Affiliate{
		ServiceOfferings: models.ServiceOfferings{
			Categories: []string{"quality-certification"},
		},
		Capacity: models.Capacity{CurrentLoad: 4, MaxCapacity: 5},
	}

	score, _ := MatchScore(needs, affiliate)
	// 40*1/2 coverage + 5 limited capacity
	require.Equal(t, 25, score)
}

func TestMatchScoreCapacityAloneIsWorthTen(t *testing.T) {
	affiliate := &models.Affiliate{
		Capacity: models.Capacity{CurrentLoad: 1, MaxCapacity: 5},
	}

	score, reasons := MatchScore([]string{"quality-certification"}, affiliate)
	require.Equal(t, 10, score)
	require.Equal(t, []string{"has open capacity"}, reasons)
}

func TestMatchScoreExperienceBreakdown(t *testing.T) {
	affiliate := &models.Affiliate{
		Capacity: models.Capacity{CurrentLoad: 5, MaxCapacity: 5},
		Expertise: models.Expertise{
			ToyotaExperience:   true,
			IndustryExperience: models.IndustryExperience{Automotive: 6, Battery: 4},
		},
	}

	score, _ := MatchScore(nil, affiliate)
	// 15 Toyota + 10 automotive + 5 battery, fully loaded so no capacity points
	require.Equal(t, 30, score)

	affiliate.Expertise.IndustryExperience = models.IndustryExperience{Automotive: 5, Battery: 3}
	score, _ = MatchScore(nil, affiliate)
	require.Equal(t, 15, score)
}

func TestRecommendAffiliatesRanksAndFilters(t *testing.T) {
	service := NewService(config.AIConfig{Recommendations: true}, nil)

	supplier := &models.Supplier{Base: models.Base{ID: "sup-1"}}

	affiliates := []models.Affiliate{
		{
			Base:   models.Base{ID: "aff-weak"},
			Name:   "Weak Fit",
			Status: models.AffiliateActive,
		},
		{
			Base:   models.Base{ID: "aff-strong"},
			Name:   "Strong Fit",
			Status: models.AffiliateActive,
			ServiceOfferings: models.ServiceOfferings{
				Categories: []string{"quality-certification", "battery-expertise", "automotive-readiness", "process-automation", "sustainability-compliance"},
			},
			Capacity:  models.Capacity{CurrentLoad: 0, MaxCapacity: 5},
			Expertise: models.Expertise{ToyotaExperience: true},
		},
		{
			Base:   models.Base{ID: "aff-inactive"},
			Status: models.AffiliateSuspended,
			Capacity: models.Capacity{
				CurrentLoad: 0,
				MaxCapacity: 5,
			},
		},
	}

	matches, err := service.RecommendAffiliates(context.Background(), supplier, affiliates, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "aff-strong", matches[0].AffiliateID)
	require.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRecommendAffiliatesDisabled(t *testing.T) {
	service := NewService(config.AIConfig{Recommendations: false}, nil)

	_, err := service.RecommendAffiliates(context.Background(), &models.Supplier{}, nil, 5)
	require.ErrorIs(t, err, ErrDisabled)
}
