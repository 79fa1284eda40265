package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultQwenEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// QwenProvider calls the native DashScope text-generation API.
type QwenProvider struct {
	Model       string
	APIKey      string
	Endpoint    string
	Temperature float64
	Client      *http.Client
}

var _ Provider = (*QwenProvider)(nil)

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("qwen: %w", ErrMissingAPIKey)
	}

	model := p.Model
	if model == "" {
		model = "qwen-max"
	}
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = defaultQwenEndpoint
	}

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	parameters := map[string]interface{}{
		"result_format": "message",
	}
	if temp := optFloat(options, "temperature", p.Temperature); temp > 0 {
		parameters["temperature"] = temp
	}

	// See: https://help.aliyun.com/document_detail/2712532.html
	reqBody := map[string]interface{}{
		"model":      optString(options, "model", model),
		"input":      map[string]interface{}{"messages": messages},
		"parameters": parameters,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qwen request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("qwen api call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("qwen api returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			// Some DashScope endpoints return 'text' directly in output
			Text string `json:"text"`
		} `json:"output"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode qwen response: %w", err)
	}
	if result.Code != "" {
		return "", fmt.Errorf("qwen api error: %s - %s", result.Code, result.Message)
	}
	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", fmt.Errorf("empty response from qwen api")
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}
