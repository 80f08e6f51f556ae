package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"art-arbitrage/alerts"
	"art-arbitrage/config"
	"art-arbitrage/models"
	"art-arbitrage/utils"
)

// batchSize bounds one completion request to respect request-size limits.
const batchSize = 20

// completionClient is the slice of the OpenAI client the adapter uses,
// kept as an interface so tests can fake the service.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// aiResult is one per-listing object from the service's JSON array.
// Indexes are 1-based, matching the prompt enumeration.
type aiResult struct {
	Index          int     `json:"index"`
	EstimatedValue int     `json:"estimated_value"`
	RiskLevel      string  `json:"risk_level"`
	Confidence     float64 `json:"confidence"`
	MarketTrend    string  `json:"market_trend"`
	Recommendation string  `json:"recommendation"`
}

// Service valuates listings through the external completion service in
// batches, falling back to the heuristic model per item, per batch, or for
// the whole scan depending on how the AI path fails. The caller always
// receives a complete valuated set.
type Service struct {
	client      completionClient
	model       string
	temperature float32
	maxTokens   int

	heuristic *HeuristicModel
	notifier  alerts.Notifier
	logger    *utils.Logger
}

// NewService wires the valuation service. Without an API key the client
// stays nil and every scan takes the heuristic path immediately, with no
// network attempt.
func NewService(cfg *config.Config, heuristic *HeuristicModel, notifier alerts.Notifier, logger *utils.Logger) *Service {
	s := &Service{
		model:       cfg.OpenAIModel,
		temperature: float32(cfg.OpenAITemperature),
		maxTokens:   cfg.OpenAIMaxTokens,
		heuristic:   heuristic,
		notifier:    notifier,
		logger:      logger,
	}

	if cfg.OpenAIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		s.client = openai.NewClientWithConfig(clientCfg)
	}

	return s
}

// ValueAll valuates the whole scan. It never fails: any AI failure mode
// degrades to heuristic values for the affected listings.
func (s *Service) ValueAll(ctx context.Context, listings []*models.ListingRecord) []*models.ValuatedListing {
	if len(listings) == 0 {
		return nil
	}

	if s.client == nil {
		s.logger.Info("[valuation] No AI key configured — using heuristic model for %d listings", len(listings))
		return s.heuristic.ValueAll(listings)
	}

	out := make([]*models.ValuatedListing, 0, len(listings))
	for start := 0; start < len(listings); start += batchSize {
		end := start + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		batch := listings[start:end]

		results, err := s.valueBatch(ctx, batch)
		if err != nil {
			// Service unreachable or rejecting us: no point retrying the
			// remaining batches. One alert per scan, not per item.
			s.logger.Error("[valuation] AI service failed, falling back to heuristic: %v", err)
			s.notifier.Notify(alerts.Payload{
				Component: "ai-valuation",
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			out = append(out, s.heuristic.ValueAll(listings[start:])...)
			return out
		}

		out = append(out, s.merge(batch, results)...)
	}
	return out
}

// valueBatch sends one batch prompt and parses the response array. A
// malformed response is not an error: it yields no results and the merge
// step falls back per item.
func (s *Service) valueBatch(ctx context.Context, batch []*models.ListingRecord) ([]aiResult, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an art market analyst. Respond with a JSON array only, no prose.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(batch),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		s.logger.Warn("[valuation] AI response had no choices")
		return nil, nil
	}

	return parseResults(resp.Choices[0].Message.Content, s.logger), nil
}

// buildPrompt enumerates the batch, one numbered block per listing.
func buildPrompt(batch []*models.ListingRecord) string {
	var b strings.Builder
	b.WriteString("Estimate the fair market value of each auction listing below.\n")
	b.WriteString("Return a JSON array with one object per listing:\n")
	b.WriteString(`[{"index":1,"estimated_value":0,"risk_level":"low|medium|high",` +
		`"confidence":0.0,"market_trend":"rising|stable|declining",` +
		`"recommendation":"buy|hold|avoid"}]` + "\n\n")

	for i, l := range batch {
		desc := l.Description
		if len(desc) > 300 {
			desc = desc[:300]
		}
		fmt.Fprintf(&b, "%d. Title: %s | Artist: %s | Asking: %d USD | Source: %s\n   %s\n",
			i+1, l.Title, l.Artist, l.AskingPrice, l.Source, desc)
	}
	return b.String()
}

// parseResults extracts the first bracket-delimited array from the
// response text and unmarshals it. Extraneous wrapping prose is tolerated;
// any parse failure yields no valuations for the batch.
func parseResults(content string, logger *utils.Logger) []aiResult {
	arr, ok := extractJSONArray(content)
	if !ok {
		logger.Warn("[valuation] AI response contained no JSON array")
		return nil
	}

	var results []aiResult
	if err := json.Unmarshal([]byte(arr), &results); err != nil {
		logger.Warn("[valuation] AI response array did not parse: %v", err)
		return nil
	}
	return results
}

// extractJSONArray returns the first balanced [...] substring.
func extractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// merge pairs AI results with their listings by index. A listing with no
// matching positive-valued result falls back to the heuristic model
// individually. Profit and margin are always recomputed locally; the AI's
// margin, if it sent one, is never trusted.
func (s *Service) merge(batch []*models.ListingRecord, results []aiResult) []*models.ValuatedListing {
	byIndex := make(map[int]aiResult, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}

	out := make([]*models.ValuatedListing, 0, len(batch))
	for i, l := range batch {
		r, ok := byIndex[i+1]
		if !ok || r.EstimatedValue <= 0 {
			out = append(out, s.heuristic.Value(l))
			continue
		}

		risk, riskOK := parseRisk(r.RiskLevel)
		trend, trendOK := parseTrend(r.MarketTrend)
		reco, recoOK := parseRecommendation(r.Recommendation)
		if !riskOK || !trendOK || !recoOK || r.Confidence < 0 || r.Confidence > 1 {
			s.logger.Debug("[valuation] AI result %d had invalid fields — heuristic fallback", r.Index)
			out = append(out, s.heuristic.Value(l))
			continue
		}

		v := &models.ValuatedListing{
			ListingRecord:  *l,
			EstimatedValue: r.EstimatedValue,
			Risk:           risk,
			Confidence:     r.Confidence,
			Trend:          trend,
			Recommendation: reco,
			ValuedByAI:     true,
		}
		v.Profit, v.ProfitMargin = profitFrom(v.EstimatedValue, l.AskingPrice)
		out = append(out, v)
	}
	return out
}

func parseRisk(s string) (models.RiskLevel, bool) {
	switch models.RiskLevel(strings.ToLower(s)) {
	case models.RiskLow:
		return models.RiskLow, true
	case models.RiskMedium:
		return models.RiskMedium, true
	case models.RiskHigh:
		return models.RiskHigh, true
	}
	return "", false
}

func parseTrend(s string) (models.MarketTrend, bool) {
	switch models.MarketTrend(strings.ToLower(s)) {
	case models.TrendRising:
		return models.TrendRising, true
	case models.TrendStable:
		return models.TrendStable, true
	case models.TrendDeclining:
		return models.TrendDeclining, true
	}
	return "", false
}

func parseRecommendation(s string) (models.Recommendation, bool) {
	switch models.Recommendation(strings.ToLower(s)) {
	case models.RecommendBuy:
		return models.RecommendBuy, true
	case models.RecommendHold:
		return models.RecommendHold, true
	case models.RecommendAvoid:
		return models.RecommendAvoid, true
	}
	return "", false
}
