// Package ai wraps the Gemini API for the assistant, receipt scanning
// and report narration.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"moneygrowth/internal/core"
)

const defaultModel = "gemini-2.5-flash"

// requestTimeout bounds every model call.
const requestTimeout = 60 * time.Second

var ErrNotConfigured = errors.New("ai client not configured")

type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed client. An empty API key is an error:
// callers degrade AI features instead of constructing a dead client.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// ChatResult is the outcome of one assistant turn: either a textual
// reply or a transaction the model wants to record.
type ChatResult struct {
	Reply string
	Draft *TransactionDraft
}

// addTransactionDeclaration is the function schema offered to the
// model on every assistant turn.
func addTransactionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "addTransaction",
		Description: "Record a new income, expense or saving in the user's ledger.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type": {
					Type:        genai.TypeString,
					Description: "One of: income, expense, saving.",
					Enum:        []string{"income", "expense", "saving"},
				},
				"description": {
					Type:        genai.TypeString,
					Description: "Short human-readable description.",
				},
				"amount": {
					Type:        genai.TypeNumber,
					Description: "Amount in the user's currency, e.g. 12.50.",
				},
				"category": {
					Type:        genai.TypeString,
					Description: "Category name; must be one of the user's categories.",
				},
				"date": {
					Type:        genai.TypeString,
					Description: "ISO date YYYY-MM-DD. Defaults to today when omitted.",
				},
			},
			Required: []string{"type", "description", "amount"},
		},
	}
}

// Chat runs one assistant turn. When the model calls addTransaction
// the parsed draft is returned for the caller to confirm and store.
func (c *Client) Chat(ctx context.Context, message string, categories []core.Category, history []string) (ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := BuildAssistantPrompt(message, categories, history)
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{addTransactionDeclaration()},
		}},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt), config)
	if err != nil {
		return ChatResult{}, fmt.Errorf("assistant turn: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ChatResult{}, errors.New("empty model response")
	}

	result := ChatResult{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil && part.FunctionCall.Name == "addTransaction" {
			draft, err := DraftFromArgs(part.FunctionCall.Args)
			if err != nil {
				slog.ErrorContext(ctx, "Model produced invalid addTransaction args",
					"error", err)
				continue
			}
			result.Draft = &draft
			continue
		}
		result.Reply += part.Text
	}

	if result.Reply == "" && result.Draft == nil {
		return ChatResult{}, errors.New("model returned neither text nor function call")
	}
	return result, nil
}

// ScanReceipt extracts a transaction draft from a receipt photo.
func (c *Client) ScanReceipt(ctx context.Context, image []byte, mimeType string, categories []core.Category) (TransactionDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(BuildScanPrompt(categories)),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return TransactionDraft{}, fmt.Errorf("scan receipt: %w", err)
	}

	return DecodeDraft(resp.Text())
}

// ToxicityReport narrates an unfavorability assessment for a credit.
// The numeric score is computed locally; the model only explains it.
func (c *Client) ToxicityReport(ctx context.Context, credit core.Credit, schedule core.Schedule, score int) (ToxicityNarrative, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := BuildToxicityPrompt(credit, schedule, score)
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt), nil)
	if err != nil {
		return ToxicityNarrative{}, fmt.Errorf("toxicity report: %w", err)
	}

	return DecodeToxicityNarrative(resp.Text())
}

// MonthlyInsight produces a short narrative over a month's totals.
func (c *Client) MonthlyInsight(ctx context.Context, overview core.MonthOverview) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := BuildInsightPrompt(overview)
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("monthly insight: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
