package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verifier/internal/metrics"
	"github.com/ppiankov/verifier/internal/model"
)

const openAISystemPrompt = `You collect evaluation records about a subject.
Return a JSON object {"candidates": [...]} and nothing else.
Each candidate has: title, content, source_url (a real, reachable URL or null),
published_date (YYYY-MM-DD or null), category, classification ("official" or "public").
Never invent URLs. Prefer recent, verifiable sources.`

// OpenAICollector asks a chat-completion model for replacement records
type OpenAICollector struct {
	client *openai.Client
	config model.OpenAIConfig
	logger *slog.Logger
}

// NewOpenAICollector creates a collector backed by the OpenAI API or a compatible endpoint
func NewOpenAICollector(cfg model.OpenAIConfig, logger *slog.Logger) (*OpenAICollector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAICollector{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}, nil
}

// Collect requests req.Count candidates and returns the ones that pass the payload schema
func (c *OpenAICollector) Collect(ctx context.Context, req Request) ([]model.CandidateRecord, error) {
	if req.Count <= 0 {
		return nil, nil
	}

	modelName := c.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := c.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}
	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		MaxTokens:   maxTokens,
		Temperature: c.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	items, err := splitPayload(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	checker, err := newSchemaChecker()
	if err != nil {
		return nil, err
	}

	var out []model.CandidateRecord
	for i, raw := range items {
		if err := checker.check(raw); err != nil {
			c.logger.Warn("dropping malformed candidate",
				"producer", req.ProducerID, "index", i, "error", err)
			metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "malformed").Inc()
			continue
		}
		var item llmCandidate
		if err := json.Unmarshal(raw, &item); err != nil {
			c.logger.Warn("dropping undecodable candidate",
				"producer", req.ProducerID, "index", i, "error", err)
			metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "malformed").Inc()
			continue
		}
		out = append(out, item.toCandidate(req))
	}

	c.logger.Debug("openai collection finished",
		"producer", req.ProducerID, "requested", req.Count, "returned", len(out),
		"tokens", resp.Usage.TotalTokens)
	return out, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", req.SubjectID)
	fmt.Fprintf(&b, "Category: %s\n", req.Category)
	fmt.Fprintf(&b, "Classification: %s\n", req.Classification)
	fmt.Fprintf(&b, "Return exactly %d candidates.\n", req.Count)
	if req.Classification == model.ClassificationOfficial {
		b.WriteString("Official records must be published within the last five years.\n")
	} else {
		b.WriteString("Public records must be published within the last two years.\n")
	}
	return b.String()
}

// llmCandidate is one item of the model payload after schema checks
type llmCandidate struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	SourceURL      *string `json:"source_url"`
	PublishedDate  *string `json:"published_date"`
	Category       string  `json:"category"`
	Classification string  `json:"classification"`
}

func (l llmCandidate) toCandidate(req Request) model.CandidateRecord {
	cand := model.CandidateRecord{
		Producer:       model.ProducerTag{ID: req.ProducerID, Kind: model.ProducerLLM},
		Category:       req.Category,
		Classification: req.Classification,
		Title:          l.Title,
		Content:        l.Content,
		SourceURL:      l.SourceURL,
	}
	if l.Category != "" {
		cand.Category = l.Category
	}
	if l.Classification != "" {
		cand.Classification = model.Classification(l.Classification)
	}
	if l.PublishedDate != nil {
		cand.PublishedDate = parseDate(*l.PublishedDate)
	}
	return cand
}

// parseDate accepts RFC 3339 timestamps or bare dates; anything else is unknown
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
