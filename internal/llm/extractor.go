// Package llm extracts structured job-posting fields from scraped
// description text using the Anthropic API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// JobFields is the structured output extracted from one job description.
type JobFields struct {
	JobTitle       string  `json:"job_title"`
	Employer       string  `json:"employer"`
	State          string  `json:"state"`
	SalaryLow      float64 `json:"salary_low"`
	SalaryHigh     float64 `json:"salary_high"`
	PayBasis       string  `json:"pay_basis"`
	Classification string  `json:"classification"`
}

// Config controls the extraction client.
type Config struct {
	APIKey     string
	Model      string
	MaxTokens  int64
	MaxRetries int
}

// Extractor wraps the Anthropic client. Structured output goes through a
// forced tool call; the model cannot reply with free text.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

const (
	extractToolName = "record_job_fields"
	systemPrompt    = "You extract structured data from US election-office job postings. " +
		"Use only information present in the posting. Leave fields empty or zero when the posting does not state them."

	// Postings longer than this are truncated before submission; the fields
	// of interest appear near the top of a posting.
	maxInputChars = 12000
)

// NewExtractor builds an Extractor. The API key is required.
func NewExtractor(cfg Config, logger *zap.Logger) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return &Extractor{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// ExtractFields submits one description and returns the parsed fields.
func (e *Extractor) ExtractFields(ctx context.Context, description string) (JobFields, error) {
	if len(description) > maxInputChars {
		description = description[:maxInputChars]
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(description)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        extractToolName,
					Description: anthropic.String("Record the structured fields of a job posting"),
					InputSchema: anthropic.ToolInputSchemaParam{
						Type:       "object",
						Properties: fieldSchema,
						Required:   []string{"job_title"},
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceParamOfTool(extractToolName),
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return JobFields{}, fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range resp.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		raw, err := json.Marshal(toolUse.Input)
		if err != nil {
			return JobFields{}, fmt.Errorf("marshal tool input: %w", err)
		}
		var fields JobFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return JobFields{}, fmt.Errorf("parse tool input: %w", err)
		}
		fields.PayBasis = CanonicalPayBasis(fields.PayBasis)
		e.logger.Debug("extracted job fields",
			zap.String("job_title", fields.JobTitle),
			zap.String("employer", fields.Employer))
		return fields, nil
	}
	return JobFields{}, fmt.Errorf("no tool call in model response")
}

var fieldSchema = map[string]any{
	"job_title": map[string]any{
		"type":        "string",
		"description": "The position title, e.g. Elections Specialist",
	},
	"employer": map[string]any{
		"type":        "string",
		"description": "The hiring jurisdiction or organization, e.g. King County",
	},
	"state": map[string]any{
		"type":        "string",
		"description": "Two-letter US state abbreviation, empty if unknown",
	},
	"salary_low": map[string]any{
		"type":        "number",
		"description": "Lower bound of the advertised pay range, 0 if not stated",
	},
	"salary_high": map[string]any{
		"type":        "number",
		"description": "Upper bound of the advertised pay range, 0 if not stated",
	},
	"pay_basis": map[string]any{
		"type":        "string",
		"enum":        []string{"annual", "monthly", "semi-monthly", "biweekly", "hourly", ""},
		"description": "Period the pay figures cover",
	},
	"classification": map[string]any{
		"type":        "string",
		"description": "Role category such as director, deputy, specialist, clerk, or technician",
	},
}
