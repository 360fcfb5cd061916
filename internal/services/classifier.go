package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wavely/internal/config"
)

// ChatMessage OpenAI 兼容的消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatResponse chat/completions 的非流式响应
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMClassifier 通过 OpenAI 兼容接口（默认 Groq）调用大模型打分
type LLMClassifier struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
}

func NewLLMClassifier(cfg config.LLMConfig) *LLMClassifier {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.groq.com/openai/v1"
	}
	return &LLMClassifier{
		client: &http.Client{Timeout: cfg.Timeout},
		apiURL: apiURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// Classify 以 rubric 作为系统提示词，temperature 0，要求返回 JSON 对象
func (c *LLMClassifier) Classify(ctx context.Context, rubric, text string) (ClassificationResult, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: rubric},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classifier: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classifier: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ClassificationResult{}, fmt.Errorf("classifier: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return ClassificationResult{}, fmt.Errorf("classifier: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return ClassificationResult{}, fmt.Errorf("%w: no choices", ErrMalformedOutput)
	}
	return parseClassification(chat.Choices[0].Message.Content)
}

// parseClassification 解析模型输出，score 和 reason 缺一不可
func parseClassification(content string) (ClassificationResult, error) {
	var raw struct {
		Score  *float64 `json:"score"`
		Reason *string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if raw.Score == nil || raw.Reason == nil {
		return ClassificationResult{}, fmt.Errorf("%w: missing score or reason", ErrMalformedOutput)
	}
	return ClassificationResult{Score: clampScore(*raw.Score), Reason: *raw.Reason}, nil
}
