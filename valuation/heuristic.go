package valuation

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"art-arbitrage/models"
)

// conditionDiscount is the fixed haircut for unseen condition issues.
const conditionDiscount = 0.9

// tokenMult maps a description substring to a value multiplier. Tables are
// ordered; the first matching token wins.
type tokenMult struct {
	token string
	mult  float64
}

var sizeMultipliers = []tokenMult{
	{"200 x", 1.50},
	{"180 x", 1.40},
	{"150 x", 1.35},
	{"120 x", 1.25},
	{"100 x", 1.15},
	{"monumental", 1.45},
	{"large", 1.20},
	{"30 x", 0.85},
	{"24 x", 0.82},
	{"20 x", 0.80},
	{"miniature", 0.70},
	{"small", 0.85},
}

var mediumMultipliers = []tokenMult{
	{"oil on canvas", 1.30},
	{"oil on panel", 1.25},
	{"marble", 1.40},
	{"bronze", 1.35},
	{"tempera", 1.20},
	{"acrylic", 1.10},
	{"gouache", 0.95},
	{"watercolour", 0.90},
	{"watercolor", 0.90},
	{"pastel", 0.85},
	{"charcoal", 0.75},
	{"lithograph", 0.60},
	{"etching", 0.55},
	{"print", 0.50},
}

// HeuristicModel is the deterministic, table-driven estimator. It is the
// default valuation path and the required fallback for every AI failure
// mode, down to individual listings.
type HeuristicModel struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicModel creates a model with the given jitter seed. Tests pass
// a fixed seed for deterministic estimates.
func NewHeuristicModel(seed int64) *HeuristicModel {
	return &HeuristicModel{rng: rand.New(rand.NewSource(seed))}
}

// Value assigns a fair-value estimate and risk profile to one listing.
func (m *HeuristicModel) Value(l *models.ListingRecord) *models.ValuatedListing {
	profile := ProfileFor(l.Artist)
	desc := strings.ToLower(l.Description)

	estimate := float64(profile.AveragePrice) *
		matchMultiplier(desc, sizeMultipliers) *
		matchMultiplier(desc, mediumMultipliers) *
		conditionDiscount *
		m.jitter()

	v := &models.ValuatedListing{
		ListingRecord:  *l,
		EstimatedValue: int(estimate),
		Confidence:     math.Max(0.5, 1-profile.Volatility),
		Trend:          trendFor(profile.Trend),
	}

	v.Profit, v.ProfitMargin = profitFrom(v.EstimatedValue, l.AskingPrice)
	v.Risk = riskFor(profile.Volatility, v.ProfitMargin)
	v.Recommendation = recommend(v.ProfitMargin, v.Risk, v.Confidence)

	return v
}

// ValueAll valuates every listing with the heuristic model.
func (m *HeuristicModel) ValueAll(listings []*models.ListingRecord) []*models.ValuatedListing {
	out := make([]*models.ValuatedListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, m.Value(l))
	}
	return out
}

// jitter returns a bounded ±10% factor so estimates do not cluster on the
// table values.
func (m *HeuristicModel) jitter() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return 0.9 + m.rng.Float64()*0.2
}

func matchMultiplier(desc string, table []tokenMult) float64 {
	for _, tm := range table {
		if strings.Contains(desc, tm.token) {
			return tm.mult
		}
	}
	return 1.0
}

// profitFrom recomputes profit and rounded margin from an estimate and an
// asking price. Every valuation path goes through here so the margin never
// drifts from the values it derives from.
func profitFrom(estimate, asking int) (profit, margin int) {
	profit = estimate - asking
	if asking <= 0 {
		return profit, 0
	}
	margin = int(math.Round(float64(profit) / float64(asking) * 100))
	return profit, margin
}

func riskFor(volatility float64, margin int) models.RiskLevel {
	switch {
	case volatility < 0.10 && margin > 30:
		return models.RiskLow
	case volatility < 0.20 && margin > 20:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func trendFor(coeff float64) models.MarketTrend {
	switch {
	case coeff > 0.05:
		return models.TrendRising
	case coeff < -0.05:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func recommend(margin int, risk models.RiskLevel, confidence float64) models.Recommendation {
	if (margin > 50 && risk == models.RiskLow && confidence > 0.7) ||
		(margin > 30 && risk == models.RiskMedium && confidence > 0.6) {
		return models.RecommendBuy
	}
	if margin < 15 || risk == models.RiskHigh {
		return models.RecommendAvoid
	}
	return models.RecommendHold
}
