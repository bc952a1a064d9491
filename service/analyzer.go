package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"fintrack/config"
)

// AnalyzerService talks to the external expense-analyzer microservice.
// The service is best effort: any failure (timeout, non-2xx, network error)
// must degrade to LocalFallback and never surface to the end user.
type AnalyzerService struct {
	baseURL string
	client  *http.Client
}

// NewAnalyzerService creates a client for the analyzer configured in cfg.
func NewAnalyzerService(cfg *config.AnalyzerConfig) *AnalyzerService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AnalyzerService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// AnalyzeExpense is one expense in the analyzer request payload. The wire
// keys are the analyzer's contract, camelCase included.
type AnalyzeExpense struct {
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         string  `json:"notes"`
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Expenses []AnalyzeExpense `json:"expenses"`
	UserID   string           `json:"userId"`
	UserName string           `json:"userName"`
}

// Suggestion is one smart suggestion returned by the analyzer.
type Suggestion struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// Analysis is the summary block returned by the analyzer. Fields the
// analyzer adds beyond these are ignored.
type Analysis struct {
	TotalSpending        float64 `json:"totalSpending"`
	AverageDailySpending float64 `json:"averageDailySpending"`
	TopCategory          string  `json:"topCategory"`
	TopCategoryAmount    float64 `json:"topCategoryAmount"`
	Message              string  `json:"message"`
}

// AnalyzeResult is the full analyzer response.
type AnalyzeResult struct {
	Suggestions []Suggestion `json:"suggestions"`
	Analysis    Analysis     `json:"analysis"`
}

// Analyze calls POST {base_url}/analyze with the user's expenses. Callers
// must treat any returned error as a signal to use LocalFallback.
func (s *AnalyzerService) Analyze(userID, userName string, expenses []AnalyzeExpense) (*AnalyzeResult, error) {
	if expenses == nil {
		expenses = []AnalyzeExpense{}
	}
	body, err := json.Marshal(analyzeRequest{
		Expenses: expenses,
		UserID:   userID,
		UserName: userName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequest("POST", s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, string(data))
	}

	var result AnalyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analyzer response: %w", err)
	}
	return &result, nil
}

// LocalFallback computes the degraded analysis when the analyzer is
// unreachable: total spend divided by 30 for the daily average and the
// single highest-spending category, wrapped in generic informational
// suggestions. Ties on the top category break lexicographically so the
// result is deterministic.
func (s *AnalyzerService) LocalFallback(expenses []AnalyzeExpense) *AnalyzeResult {
	if len(expenses) == 0 {
		return &AnalyzeResult{
			Suggestions: []Suggestion{
				{Type: "info", Message: "No expense data available for analysis.", Priority: "low"},
			},
			Analysis: Analysis{
				TopCategory: "None",
				Message:     "Start tracking your expenses to get personalized insights!",
			},
		}
	}

	var total float64
	byCategory := make(map[string]float64)
	for _, e := range expenses {
		total += e.Amount
		byCategory[e.Category] += e.Amount
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if byCategory[categories[i]] != byCategory[categories[j]] {
			return byCategory[categories[i]] > byCategory[categories[j]]
		}
		return categories[i] < categories[j]
	})
	topCategory := categories[0]

	return &AnalyzeResult{
		Suggestions: []Suggestion{
			{
				Type:     "info",
				Message:  "Smart suggestions are temporarily unavailable; showing a basic summary instead.",
				Priority: "low",
			},
			{
				Type:     "info",
				Message:  fmt.Sprintf("Your highest spending category is %s.", topCategory),
				Priority: "low",
			},
			{
				Type:     "tip",
				Message:  "Track your expenses regularly to better understand your spending patterns.",
				Priority: "low",
			},
		},
		Analysis: Analysis{
			TotalSpending:        total,
			AverageDailySpending: total / 30,
			TopCategory:          topCategory,
			TopCategoryAmount:    byCategory[topCategory],
			Message:              "Basic analysis computed locally.",
		},
	}
}
