// Package gemini implements llm.Provider for Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"razglasgo/pkg/config"
	"razglasgo/pkg/llm"
	"razglasgo/pkg/tracker"
)

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	apiKey      string
	modelName   string
	tracker     *tracker.Tracker

	mu sync.RWMutex
}

// NewClient creates a new Gemini client.
func NewClient(cfg config.GeminiConfig, t *tracker.Tracker) (*Client, error) {
	c := &Client{tracker: t}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure updates the client with new settings.
func (c *Client) Configure(cfg config.GeminiConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apiKey = cfg.Key
	c.modelName = cfg.Model

	if c.modelName == "" {
		c.modelName = "gemini-2.5-flash-lite"
	}

	if c.apiKey == "" {
		// Can't initialize without key.
		c.genaiClient = nil
		return nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genaiClient = client

	if err := c.validateModel(context.Background()); err != nil {
		slog.Warn("Gemini model validation failed (proceeding anyway)", "error", err)
		// Allow startup even if the API is flaky or rate-limited; a truly
		// invalid key/model fails on the first generation call instead.
	}

	return nil
}

// Name implements llm.Provider.
func (c *Client) Name() string { return "gemini" }

// GenerateAnnouncement implements llm.Provider using JSON response mode.
func (c *Client) GenerateAnnouncement(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	c.mu.RLock()
	client := c.genaiClient
	modelName := c.modelName
	c.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}

	prompt := buildPrompt(req)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), cfg)
	if err != nil {
		if c.tracker != nil {
			c.tracker.TrackAPIFailure("gemini")
		}
		return nil, fmt.Errorf("generate announcement error: %w", err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		if c.tracker != nil {
			c.tracker.TrackAPIFailure("gemini")
		}
		return nil, err
	}

	cleaned := cleanJSONBlock(text)

	var out llm.Response
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		if c.tracker != nil {
			c.tracker.TrackAPIFailure("gemini")
		}
		return nil, fmt.Errorf("failed to unmarshal JSON response: %w. Response: %s", err, cleaned)
	}

	if c.tracker != nil {
		c.tracker.TrackAPISuccess("gemini")
	}
	return &out, nil
}

// HealthCheck implements llm.Provider.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.genaiClient == nil {
		return fmt.Errorf("gemini client not configured")
	}
	return nil
}

// validateModel checks if the configured model is available for the API key.
func (c *Client) validateModel(ctx context.Context) error {
	name := c.modelName
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}

	// Try to get the specific model (1 API call)
	_, err := c.genaiClient.Models.Get(ctx, name, nil)
	if err == nil {
		slog.Debug("Gemini model validation success", "model", c.modelName)
		return nil
	}

	// List what IS available to help the operator fix the config.
	iter, listErr := c.genaiClient.Models.List(ctx, nil)
	if listErr != nil {
		slog.Warn("Failed to list models for recovery", "error", listErr)
		return nil
	}

	var availableModels []string
	for {
		resp, nextErr := iter.Next(ctx)
		if nextErr == iterator.Done {
			break
		}
		if nextErr != nil {
			break
		}
		if strings.Contains(strings.ToLower(resp.Name), "gemini") {
			availableModels = append(availableModels, resp.Name)
		}
	}

	slog.Error("Configured model not found", "configured", c.modelName)
	for _, m := range availableModels {
		slog.Error("- " + m)
	}

	return nil // Proceed anyway (lazy validation on generation)
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
