package valuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"art-arbitrage/alerts"
	"art-arbitrage/models"
	"art-arbitrage/utils"
)

type fakeClient struct {
	calls    int
	response string
	err      error
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

type countingNotifier struct {
	fired int64
}

func (c *countingNotifier) Notify(alerts.Payload) {
	atomic.AddInt64(&c.fired, 1)
}

func newTestService(client completionClient, notifier alerts.Notifier) *Service {
	return &Service{
		client:    client,
		model:     "test-model",
		heuristic: NewHeuristicModel(1),
		notifier:  notifier,
		logger:    utils.NewLogger(false),
	}
}

func listings(n int) []*models.ListingRecord {
	out := make([]*models.ListingRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, listing("Anders Zorn", 100000+i, "oil on canvas"))
	}
	return out
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`[{"index":1}]`, `[{"index":1}]`, true},
		{`here you go: [ {"index":1} ] thanks!`, `[ {"index":1} ]`, true},
		{"```json\n[{\"index\":1}]\n```", `[{"index":1}]`, true},
		{`[[1,2],[3]]`, `[[1,2],[3]]`, true},
		{`[{"note":"has ] in string"}]`, `[{"note":"has ] in string"}]`, true},
		{`no array here`, ``, false},
		{`[ unterminated`, ``, false},
		{``, ``, false},
	}

	for _, tt := range tests {
		got, ok := extractJSONArray(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("extractJSONArray(%q) = (%q, %v); want (%q, %v)",
				tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValueAllNoKeySkipsAI(t *testing.T) {
	s := newTestService(nil, alerts.NopNotifier{})
	s.client = nil

	out := s.ValueAll(context.Background(), listings(3))
	if len(out) != 3 {
		t.Fatalf("expected 3 valuations, got %d", len(out))
	}
	for _, v := range out {
		if v.ValuedByAI {
			t.Error("heuristic path must not mark listings as AI-valued")
		}
	}
}

func TestValueAllParsesWrappedArray(t *testing.T) {
	client := &fakeClient{
		response: `Here are my valuations: [
			{"index":1,"estimated_value":180000,"risk_level":"low",
			 "confidence":0.85,"market_trend":"rising","recommendation":"buy"},
			{"index":2,"estimated_value":90000,"risk_level":"medium",
			 "confidence":0.6,"market_trend":"stable","recommendation":"hold"}
		] Let me know if you need more.`,
	}
	s := newTestService(client, alerts.NopNotifier{})

	out := s.ValueAll(context.Background(), listings(2))
	if len(out) != 2 {
		t.Fatalf("expected 2 valuations, got %d", len(out))
	}

	if !out[0].ValuedByAI || out[0].EstimatedValue != 180000 {
		t.Errorf("first valuation: ai=%v value=%d", out[0].ValuedByAI, out[0].EstimatedValue)
	}
	if out[0].Risk != models.RiskLow || out[0].Trend != models.TrendRising {
		t.Errorf("first valuation fields: %q/%q", out[0].Risk, out[0].Trend)
	}

	// Margin is recomputed locally, never taken from the service.
	wantProfit := 180000 - out[0].AskingPrice
	if out[0].Profit != wantProfit {
		t.Errorf("profit: got %d, want %d", out[0].Profit, wantProfit)
	}
}

func TestValueAllMarginInvariantBothPaths(t *testing.T) {
	client := &fakeClient{
		response: `[{"index":1,"estimated_value":250000,"risk_level":"low",
			"confidence":0.9,"market_trend":"stable","recommendation":"buy"}]`,
	}
	s := newTestService(client, alerts.NopNotifier{})

	out := s.ValueAll(context.Background(), listings(2))
	if len(out) != 2 {
		t.Fatalf("expected 2 valuations, got %d", len(out))
	}
	if !out[0].ValuedByAI || out[1].ValuedByAI {
		t.Fatalf("expected AI then heuristic, got %v/%v", out[0].ValuedByAI, out[1].ValuedByAI)
	}

	for i, v := range out {
		_, wantMargin := profitFrom(v.EstimatedValue, v.AskingPrice)
		if v.ProfitMargin != wantMargin {
			t.Errorf("listing %d: margin %d, want %d", i, v.ProfitMargin, wantMargin)
		}
	}
}

func TestValueAllPerItemFallback(t *testing.T) {
	// Item 2 missing, item 3 non-positive, item 4 invalid enum.
	client := &fakeClient{
		response: `[
			{"index":1,"estimated_value":150000,"risk_level":"low",
			 "confidence":0.8,"market_trend":"stable","recommendation":"buy"},
			{"index":3,"estimated_value":0,"risk_level":"low",
			 "confidence":0.8,"market_trend":"stable","recommendation":"buy"},
			{"index":4,"estimated_value":120000,"risk_level":"extreme",
			 "confidence":0.8,"market_trend":"stable","recommendation":"buy"}
		]`,
	}
	s := newTestService(client, alerts.NopNotifier{})

	out := s.ValueAll(context.Background(), listings(4))
	if len(out) != 4 {
		t.Fatalf("expected 4 valuations, got %d", len(out))
	}

	wantAI := []bool{true, false, false, false}
	for i, v := range out {
		if v.ValuedByAI != wantAI[i] {
			t.Errorf("listing %d: ValuedByAI=%v, want %v", i, v.ValuedByAI, wantAI[i])
		}
		if v.EstimatedValue <= 0 {
			t.Errorf("listing %d: fallback must still produce an estimate", i)
		}
	}
}

func TestValueAllMalformedResponseFallsBackWithoutAlert(t *testing.T) {
	client := &fakeClient{response: `sorry, I cannot help with that`}
	notifier := &countingNotifier{}
	s := newTestService(client, notifier)

	out := s.ValueAll(context.Background(), listings(3))
	if len(out) != 3 {
		t.Fatalf("expected 3 valuations, got %d", len(out))
	}
	for i, v := range out {
		if v.ValuedByAI {
			t.Errorf("listing %d: expected heuristic fallback", i)
		}
	}
	if notifier.fired != 0 {
		t.Errorf("malformed response is a batch-level fallback, not an outage: %d alerts", notifier.fired)
	}
}

func TestValueAllServiceFailureAlertsOncePerScan(t *testing.T) {
	client := &fakeClient{err: errors.New("401 unauthorized")}
	notifier := &countingNotifier{}
	s := newTestService(client, notifier)

	// 45 listings = 3 batches; the failure on batch one covers the rest.
	out := s.ValueAll(context.Background(), listings(45))
	if len(out) != 45 {
		t.Fatalf("expected a complete result set, got %d", len(out))
	}
	for i, v := range out {
		if v.ValuedByAI {
			t.Fatalf("listing %d: expected heuristic fallback after service failure", i)
		}
	}
	if notifier.fired != 1 {
		t.Errorf("expected exactly 1 alert per scan, got %d", notifier.fired)
	}
	if client.calls != 1 {
		t.Errorf("expected no further batches after a service failure, got %d calls", client.calls)
	}
}

func TestValueAllBatching(t *testing.T) {
	client := &fakeClient{response: `[]`}
	s := newTestService(client, alerts.NopNotifier{})

	out := s.ValueAll(context.Background(), listings(41))
	if len(out) != 41 {
		t.Fatalf("expected 41 valuations, got %d", len(out))
	}
	if client.calls != 3 {
		t.Errorf("41 listings should make 3 batch calls, got %d", client.calls)
	}
}

func TestBuildPromptEnumeratesBatch(t *testing.T) {
	batch := listings(2)
	prompt := buildPrompt(batch)

	for i, l := range batch {
		if want := fmt.Sprintf("%d. Title: %s", i+1, l.Title); !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, "Anders Zorn") {
		t.Error("prompt missing artist name")
	}
}
