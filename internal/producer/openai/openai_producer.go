// Package openai implements the LLM-backed evidence producer against the
// OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/port"
	"skillscope/internal/producer"
)

const (
	apiURL = "https://api.openai.com/v1/chat/completions"
)

func init() {
	producer.RegisterProvider("openai", func(cfg *config.ProducerProviderConfig) (port.EvidenceProducer, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai producer: api key not configured")
		}
		return NewProducer(cfg), nil
	})
}

// Producer implements port.EvidenceProducer using the OpenAI Chat Completions API.
type Producer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProducer creates an OpenAI-backed evidence producer from a provider config.
func NewProducer(cfg *config.ProducerProviderConfig) *Producer {
	return newProducer(cfg, apiURL)
}

// NewProducerWithEndpoint creates a producer pointing at a custom API endpoint (for testing).
func NewProducerWithEndpoint(cfg *config.ProducerProviderConfig, endpoint string) *Producer {
	return newProducer(cfg, endpoint)
}

func newProducer(cfg *config.ProducerProviderConfig, endpoint string) *Producer {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Producer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Produce asks the model for quoted evidence of each skill and aggregates the
// returned items into per-skill assessments. Scores come back on the 0-10
// reporting scale; a skill with no evidence is neutral (5.0, low confidence).
func (p *Producer) Produce(ctx context.Context, input port.ProduceInput) (map[domain.Skill]port.SkillAssessment, error) {
	skills := input.Skills
	if len(skills) == 0 {
		skills = domain.AllSkills
	}

	prompt := producer.BuildAnalysisPrompt(input.Text, input.StudentID, skills)

	reqBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": producer.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
		"max_tokens":  4000,
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := producer.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, producer.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	evidenceBySkill, err := parseResponse(respBody, skills)
	if err != nil {
		return nil, err
	}
	return scoreAssessments(evidenceBySkill, skills), nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type evidenceItem struct {
	Quote             string   `json:"quote"`
	Rationale         string   `json:"rationale"`
	ScoreContribution *float64 `json:"score_contribution"`
	Confidence        *float64 `json:"confidence"`
}

func parseResponse(body []byte, skills []domain.Skill) (map[domain.Skill][]port.Evidence, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	text := stripCodeFences(resp.Choices[0].Message.Content)

	var parsed map[string][]json.RawMessage
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w (raw: %s)", err, truncate(text, 500))
	}

	out := make(map[domain.Skill][]port.Evidence, len(skills))
	for _, s := range skills {
		var items []port.Evidence
		for _, raw := range parsed[string(s)] {
			var item evidenceItem
			if err := json.Unmarshal(raw, &item); err != nil {
				log.Printf("openai.Produce: skipping invalid evidence item for %s: %v", s, err)
				continue
			}
			items = append(items, port.Evidence{
				Quote:             item.Quote,
				Rationale:         item.Rationale,
				ScoreContribution: floatOr(item.ScoreContribution, 0.5),
				Confidence:        floatOr(item.Confidence, 0.5),
			})
		}
		out[s] = items
	}
	return out, nil
}

// scoreAssessments folds evidence lists into per-skill scores on the 0-10
// scale: mean contribution scaled up, confidence as the mean plus a small
// bonus for more evidence, neutral 5.0 when nothing came back.
func scoreAssessments(evidenceBySkill map[domain.Skill][]port.Evidence, skills []domain.Skill) map[domain.Skill]port.SkillAssessment {
	out := make(map[domain.Skill]port.SkillAssessment, len(skills))
	for _, s := range skills {
		items := evidenceBySkill[s]
		if len(items) == 0 {
			out[s] = port.SkillAssessment{Score: 5.0, Confidence: 0.3}
			continue
		}

		var contribution, confidence float64
		for _, item := range items {
			contribution += item.ScoreContribution
			confidence += item.Confidence
		}
		n := float64(len(items))
		score := contribution / n * 10.0
		boost := 0.1 * n
		if boost > 0.2 {
			boost = 0.2
		}
		final := confidence/n + boost
		if final > 1.0 {
			final = 1.0
		}

		out[s] = port.SkillAssessment{
			Score:         round1(score),
			Confidence:    round2(final),
			EvidenceCount: len(items),
			Evidence:      items,
		}
	}
	return out
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
