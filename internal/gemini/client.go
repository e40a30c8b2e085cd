// Package gemini implements integration with Google's Gemini AI API.
// It provides message classification and question answering for the relay.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"github.com/edgard/recallbot/internal/config"
	"github.com/edgard/recallbot/internal/database"
)

// Client defines the interface for AI operations used throughout the application.
// It provides methods for classifying incoming messages and answering questions
// about saved items.
type Client interface {
	// Classify interprets one message as a save or query intent. Model output
	// that fails validation comes back as IntentUnparseable with a nil error;
	// a non-nil error means the call itself failed.
	Classify(ctx context.Context, message string) (Classification, error)

	// Answer generates a natural-language answer to question from the full
	// saved-item collection.
	Answer(ctx context.Context, question string, items []database.SavedItem) (string, error)
}

type sdkClient struct {
	genaiClient       *genai.Client
	log               *slog.Logger
	contentConfig     *genai.GenerateContentConfig
	defaultModelName  string
	classifyMaxTokens int32
	answerMaxTokens   int32
	maxRetries        int
	retryDelay        time.Duration
	breaker           *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

// NewClient creates a new Gemini AI client with the provided configuration.
// It initializes the connection to the Gemini API and sets up necessary parameters.
func NewClient(
	ctx context.Context,
	cfg config.GeminiConfig,
	log *slog.Logger,
) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "gemini_client")

	var breaker *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
	if cfg.Breaker.Enabled {
		breaker = gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](gobreaker.Settings{
			Name:        "gemini",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		})
	}

	logger.Info("Gemini client initialized successfully", "model", cfg.Model, "breaker_enabled", cfg.Breaker.Enabled)
	return &sdkClient{
		genaiClient:       gi,
		log:               logger,
		contentConfig:     baseCfg,
		defaultModelName:  cfg.Model,
		classifyMaxTokens: cfg.ClassifyMaxTokens,
		answerMaxTokens:   cfg.AnswerMaxTokens,
		maxRetries:        cfg.MaxRetries,
		retryDelay:        cfg.RetryDelay,
		breaker:           breaker,
	}, nil
}

// generateContent routes the call through the circuit breaker when one is
// configured. The breaker counts a fully exhausted retry loop as a single
// failure.
func (c *sdkClient) generateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.breaker == nil {
		return c.generateContentWithRetries(ctx, c.defaultModelName, contents, cfg)
	}

	resp, err := c.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return c.generateContentWithRetries(ctx, c.defaultModelName, contents, cfg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.WarnContext(ctx, "Gemini call rejected by circuit breaker", "error", err)
			return nil, fmt.Errorf("gemini circuit breaker rejected call: %w", err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var genAiAPIError *genai.APIError
		// Use errors.As to check if the error (or an error it wraps) is a *genai.APIError
		if errors.As(err, &genAiAPIError) && (genAiAPIError.Code == 500 || genAiAPIError.Code == 503) { // Retriable HTTP codes
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", genAiAPIError.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			// Max retries reached for a retriable genai.APIError
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries with APIError", "error", err, "code", genAiAPIError.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, genAiAPIError.Code, err)
		}

		// Not a retriable genai.APIError (either not genai.APIError, or not a 500/503 code, or errors.As returned false)
		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err) // Return the original error, wrapped
	}
	// This part of the code should be unreachable if maxRetries >= 0,
	// as the loop's conditions will always lead to a return or continue.
	// Returning the last error to satisfy the compiler and cover edge cases.
	return nil, err
}

var classificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"type":        {Type: genai.TypeString, Enum: []string{"save", "query"}, Description: "Whether the message saves something or asks about saved items."},
		"category":    {Type: genai.TypeString, Enum: []string{"content", "food", "events", "facts"}, Description: "Save category. Required when type is save."},
		"title":       {Type: genai.TypeString, Description: "Short title for the saved item. Empty if unknown."},
		"platform":    {Type: genai.TypeString, Description: "Content platform (e.g., netflix, youtube, tiktok). Empty if unknown."},
		"ingredients": {Type: genai.TypeString, Description: "Ingredient list for food items. Empty if not listed."},
		"location":    {Type: genai.TypeString, Description: "Event location. Empty if unknown."},
		"event_date":  {Type: genai.TypeString, Description: "Event date as written in the message. Empty if unknown."},
		"caption":     {Type: genai.TypeString, Description: "Key detail for facts items. Empty otherwise."},
		"question":    {Type: genai.TypeString, Description: "The user's question. Required when type is query."},
	},
	Required: []string{"type"},
}

func (c *sdkClient) Classify(ctx context.Context, message string) (Classification, error) {
	c.log.DebugContext(ctx, "Classifying message using JSON schema mode", "message_length", len(message))

	contents := []*genai.Content{genai.NewContentFromText(message, genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: ClassifierSystemInstruction}}}
	copyCfg.MaxOutputTokens = c.classifyMaxTokens
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = classificationSchema

	resp, err := c.generateContent(ctx, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini classification API call failed", "error", err)
		return Classification{}, fmt.Errorf("failed to classify message: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		// The call itself succeeded; a blocked or empty response means the
		// message could not be classified, not that the gateway is down.
		c.log.WarnContext(ctx, "Gemini classification returned no usable text, treating as unparseable", "error", err)
		return Classification{Type: IntentUnparseable}, nil
	}

	result := ParseClassification(jsonText)
	if result.Type == IntentUnparseable {
		c.log.WarnContext(ctx, "Classification output failed validation, treating as unparseable", "response_text", jsonText)
	} else {
		c.log.DebugContext(ctx, "Message classified", "type", result.Type, "category", result.Category)
	}
	return result, nil
}

func (c *sdkClient) Answer(ctx context.Context, question string, items []database.SavedItem) (string, error) {
	c.log.DebugContext(ctx, "Generating answer", "item_count", len(items))

	itemsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal saved items: %w", err)
	}

	prompt := fmt.Sprintf(AnswerPromptTemplate, itemsJSON, question)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.MaxOutputTokens = c.answerMaxTokens

	resp, err := c.generateContent(ctx, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini answer generation API call failed", "error", err)
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return c.extractTextFromResponse(ctx, resp)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	op := "gemini_operation"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			parts := strings.Split(fn.Name(), ".")
			if len(parts) >= 2 {
				op = parts[len(parts)-1]
			}
		}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "operation", op, "reason", reasonMsg)
		return "", fmt.Errorf("%s blocked by safety filter: %s", op, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "operation", op, "finish_reason", finishReason)

		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonStop {
			return "", fmt.Errorf("%s returned no content, finish reason: %s", op, finishReason)
		}

		return "", fmt.Errorf("%s returned empty content", op)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty", "operation", op)
		return "", fmt.Errorf("%s returned empty text", op)
	}

	return text, nil
}
