package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/prompts"
)

// SynthesisErrorKind is a machine-readable classification of a synthesis failure.
type SynthesisErrorKind string

const (
	SynthesisMalformedResponse SynthesisErrorKind = "malformed_response"
	SynthesisMissingField      SynthesisErrorKind = "missing_field"
	SynthesisInvalidSummary    SynthesisErrorKind = "invalid_summary"
	SynthesisInvalidKeyPoint   SynthesisErrorKind = "invalid_key_point"
	SynthesisInvalidFieldType  SynthesisErrorKind = "invalid_field_type"
)

// SynthesisError reports why the generative backend's response could not
// become a ResearchBrief. Transport failures map to malformed_response.
type SynthesisError struct {
	Kind   SynthesisErrorKind
	Detail string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %s: %s", e.Kind, e.Detail)
}

func newSynthesisError(kind SynthesisErrorKind, format string, args ...interface{}) *SynthesisError {
	return &SynthesisError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// SynthesizerService turns a set of extracted articles into one validated
// ResearchBrief via an OpenAI-compatible chat completions backend.
type SynthesizerService struct {
	client      *resty.Client
	model       string
	endpoint    string
	modelsURL   string
	maxTokens   int
	temperature float32
}

// SynthesizerConfig holds configuration for the synthesizer service.
type SynthesizerConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// NewSynthesizerService creates a new synthesizer service.
// Parameters:
//   - cfg: synthesizer configuration including model, API key, and base URL.
// Returns:
//   - *SynthesizerService: initialized LLM client wrapper.
func NewSynthesizerService(cfg *SynthesizerConfig) *SynthesizerService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 3000
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	// Default to OpenAI compatible endpoint if not specified
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &SynthesizerService{
		client:      client,
		model:       cfg.Model,
		endpoint:    baseURL + "/chat/completions",
		modelsURL:   baseURL + "/models",
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	MaxTokens      int                 `json:"max_tokens"`
	Temperature    float32             `json:"temperature"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Synthesize performs exactly one backend call and validates the response
// into a ResearchBrief. No retry is attempted; a malformed response fails
// the run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - articles: successfully extracted articles; must be non-empty.
// Returns:
//   - *domain.ResearchBrief: fully validated brief.
//   - error: *SynthesisError describing the first failed check.
func (s *SynthesizerService) Synthesize(ctx context.Context, articles []domain.ArticleExtraction) (*domain.ResearchBrief, error) {
	if len(articles) == 0 {
		return nil, newSynthesisError(SynthesisMalformedResponse, "no extracted articles to synthesize")
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.SynthesisSystemPrompt},
			{Role: "user", Content: prompts.BuildSynthesisPrompt(articles)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		// Constrain the response channel to a JSON document; local
		// validation below never trusts this alone
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	}

	// SetError binds non-2xx bodies too, so the backend's own error message
	// reaches the failure reason
	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, newSynthesisError(SynthesisMalformedResponse, "LLM request failed: %v", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, newSynthesisError(SynthesisMalformedResponse, "LLM API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return nil, newSynthesisError(SynthesisMalformedResponse, "LLM API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, newSynthesisError(SynthesisMalformedResponse, "empty response from LLM")
	}

	allowed := make(map[string]struct{}, len(articles))
	for _, article := range articles {
		allowed[article.SourceURL] = struct{}{}
	}

	brief, err := validateBrief(resp.Choices[0].Message.Content, allowed)
	if err != nil {
		logger.CtxWarn(ctx, "Synthesis response rejected: %v", err)
		return nil, err
	}
	return brief, nil
}

// Ping verifies the backend credential with a lightweight models listing.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the backend is unreachable or rejects the credential.
func (s *SynthesizerService) Ping(ctx context.Context) error {
	httpResp, err := s.client.R().SetContext(ctx).Get(s.modelsURL)
	if err != nil {
		return fmt.Errorf("LLM backend unreachable: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return fmt.Errorf("LLM backend returned HTTP %d", httpResp.StatusCode())
	}
	return nil
}

// extractJSON locates the outermost JSON object in the response text,
// tolerating stray prose or fencing around it. Decoding one value from the
// first brace keeps braces inside string literals from ending the object
// early.
func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&raw); err != nil {
		return "", fmt.Errorf("incomplete JSON in response")
	}
	return string(raw), nil
}

// requiredBriefFields are the top-level keys every synthesis response must carry.
var requiredBriefFields = []string{"summary", "key_points", "conflicting_claims", "verification_checklist"}

// validateBrief runs the full structural contract over the raw response, in
// order, first failure wins:
//  1. parses as a JSON object          -> malformed_response
//  2. all four fields present          -> missing_field
//  3. non-empty summary string         -> invalid_summary
//  4. key_points cite allowed sources  -> invalid_key_point
//  5. remaining fields are sequences   -> invalid_field_type
//
// Only after every check passes is a ResearchBrief constructed.
func validateBrief(content string, allowedURLs map[string]struct{}) (*domain.ResearchBrief, error) {
	jsonStr, err := extractJSON(content)
	if err != nil {
		return nil, newSynthesisError(SynthesisMalformedResponse, "%v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, newSynthesisError(SynthesisMalformedResponse, "failed to parse JSON: %v", err)
	}

	for _, field := range requiredBriefFields {
		if _, ok := raw[field]; !ok {
			return nil, newSynthesisError(SynthesisMissingField, "missing field %q", field)
		}
	}

	var summary string
	if err := json.Unmarshal(raw["summary"], &summary); err != nil {
		return nil, newSynthesisError(SynthesisInvalidSummary, "summary is not a string")
	}
	if strings.TrimSpace(summary) == "" {
		return nil, newSynthesisError(SynthesisInvalidSummary, "summary is empty")
	}

	var keyPoints []domain.KeyPoint
	if err := json.Unmarshal(raw["key_points"], &keyPoints); err != nil {
		return nil, newSynthesisError(SynthesisInvalidKeyPoint, "key_points is not a sequence of objects")
	}
	for i, kp := range keyPoints {
		if strings.TrimSpace(kp.Text) == "" {
			return nil, newSynthesisError(SynthesisInvalidKeyPoint, "key_points[%d] has empty text", i)
		}
		if _, ok := allowedURLs[kp.SourceURL]; !ok {
			return nil, newSynthesisError(SynthesisInvalidKeyPoint,
				"key_points[%d] cites %q, which is not a successfully extracted source", i, kp.SourceURL)
		}
	}

	var conflicts []domain.ConflictingClaim
	if err := json.Unmarshal(raw["conflicting_claims"], &conflicts); err != nil {
		return nil, newSynthesisError(SynthesisInvalidFieldType, "conflicting_claims is not a sequence")
	}
	var checklist []string
	if err := json.Unmarshal(raw["verification_checklist"], &checklist); err != nil {
		return nil, newSynthesisError(SynthesisInvalidFieldType, "verification_checklist is not a sequence of strings")
	}

	if keyPoints == nil {
		keyPoints = []domain.KeyPoint{}
	}
	if conflicts == nil {
		conflicts = []domain.ConflictingClaim{}
	}
	if checklist == nil {
		checklist = []string{}
	}

	return &domain.ResearchBrief{
		Summary:               summary,
		KeyPoints:             keyPoints,
		ConflictingClaims:     conflicts,
		VerificationChecklist: checklist,
	}, nil
}
