package ai

import (
	"context"
	"math"
	"sort"

	"example.com/tbmnc/services/tracker/internal/models"
)

// AffiliateMatch scores an affiliate against a supplier's needs
type AffiliateMatch struct {
	AffiliateID string   `json:"affiliate_id"`
	Name        string   `json:"name"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
}

// IdentifySupplierNeeds lists the service categories a supplier is
// missing based on its profile gaps.
func IdentifySupplierNeeds(supplier *models.Supplier) []string {
	var needs []string
	if !supplier.Certifications.IATF16949 || !supplier.Certifications.ISO9001 {
		needs = append(needs, "quality-certification")
	}
	if !supplier.BatteryExperience.HasExperience {
		needs = append(needs, "battery-expertise")
	}
	if !supplier.AutomotiveExperience.HasExperience {
		needs = append(needs, "automotive-readiness")
	}
	if supplier.TechnicalCapabilities.AutomationLevel == "" || supplier.TechnicalCapabilities.AutomationLevel == "low" {
		needs = append(needs, "process-automation")
	}
	if !supplier.Sustainability.EnvironmentalCompliance {
		needs = append(needs, "sustainability-compliance")
	}
	if len(needs) == 0 {
		needs = append(needs, "general-advisory")
	}
	return needs
}

// MatchScore rates how well an affiliate fits a supplier's needs on a
// 0-100 scale: up to 40 for category coverage, 30 for expertise,
// 20 for track record, 10 for open capacity.
func MatchScore(needs []string, affiliate *models.Affiliate) (int, []string) {
	var score float64
	var reasons []string

	if len(needs) > 0 {
		covered := 0
		offered := make(map[string]bool, len(affiliate.ServiceOfferings.Categories))
		for _, c := range affiliate.ServiceOfferings.Categories {
			offered[c] = true
		}
		for _, n := range needs {
			if offered[n] {
				covered++
			}
		}
		score += 40 * float64(covered) / float64(len(needs))
		if covered > 0 {
			reasons = append(reasons, "covers identified needs")
		}
	}

	if affiliate.Expertise.ToyotaExperience {
		score += 15
		reasons = append(reasons, "prior OEM program experience")
	}
	if affiliate.Expertise.IndustryExperience.Automotive > 5 {
		score += 10
		reasons = append(reasons, "deep automotive experience")
	}
	if affiliate.Expertise.IndustryExperience.Battery > 3 {
		score += 5
		reasons = append(reasons, "battery industry experience")
	}

	score += affiliate.Performance.AverageRating * 2
	score += affiliate.Performance.OnTimeDeliveryRate * 10
	if affiliate.Performance.AverageRating >= 4 {
		reasons = append(reasons, "strong performance history")
	}

	if affiliate.Capacity.MaxCapacity > 0 {
		utilization := float64(affiliate.Capacity.CurrentLoad) / float64(affiliate.Capacity.MaxCapacity)
		if utilization < 0.7 {
			score += 10
			reasons = append(reasons, "has open capacity")
		} else if utilization < 0.9 {
			score += 5
			reasons = append(reasons, "has limited capacity")
		}
	}

	if score > 100 {
		score = 100
	}
	return int(math.Round(score)), reasons
}

// RecommendAffiliates ranks active affiliates for a supplier. Results
// are ordered by score descending, capped at limit.
func (s *Service) RecommendAffiliates(ctx context.Context, supplier *models.Supplier, affiliates []models.Affiliate, limit int) ([]AffiliateMatch, error) {
	if !s.cfg.Recommendations {
		return nil, ErrDisabled
	}

	needs := IdentifySupplierNeeds(supplier)

	var matches []AffiliateMatch
	for i := range affiliates {
		a := &affiliates[i]
		if a.Status != models.AffiliateActive {
			continue
		}
		score, reasons := MatchScore(needs, a)
		matches = append(matches, AffiliateMatch{
			AffiliateID: a.ID,
			Name:        a.Name,
			Score:       score,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
