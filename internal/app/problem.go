package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kaydendua/bAIted/internal/config"
)

// ProblemGenerator produces the coding problem for a round. It may fail or
// be slow; the orchestrator never lets it block the phase clock.
type ProblemGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ProblemPlaceholder is cached when generation fails or times out, so every
// phase still has some problem text to broadcast.
const ProblemPlaceholder = "# Error\n\nFailed to generate a problem. Please restart the game."

// problemPrompt instructs the model to produce one self-contained coding
// problem with test cases and no solution hints.
const problemPrompt = `You are a creative coding problem generator. Generate one coding problem suitable for multiple people to attempt with slight variations in interpretation or approach.

Requirements:
- Topic: anything from simple if statements to arrays or algorithms, beginner to intermediate
- Language: Python focused but solvable in most languages
- Must include subtle edge cases or room for interpretation
- Format in clean Markdown with a title, a short scenario, 2-3 example test cases with inputs and expected outputs, and constraints
- DO NOT provide any solutions, code, or implementation hints
- DO NOT explain the edge cases
- Keep the problem statement concise but complete

Generate a difficulty 3 coding problem (roughly three minutes of work for an average developer). Only the problem statement with test cases.`

// ProblemClient generates problems through an OpenAI-compatible
// chat-completions endpoint
type ProblemClient struct {
	httpClient *http.Client
	cfg        config.ProblemConfig
	logger     *slog.Logger
}

// NewProblemClient creates a problem client from configuration
func NewProblemClient(cfg config.ProblemConfig, logger *slog.Logger) *ProblemClient {
	return &ProblemClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate requests one coding problem from the configured API
func (c *ProblemClient) Generate(ctx context.Context) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("problem API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: problemPrompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("problem API request failed", "status", resp.StatusCode, "body", string(msg))
		return "", fmt.Errorf("problem API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("problem API error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("problem API returned no content")
	}

	return parsed.Choices[0].Message.Content, nil
}
