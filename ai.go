package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
)

/* ---------------- OpenAI payloads ---------------- */

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
}

type openAIChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const suggestSystemPrompt = "You are an assistant that extracts actionable next steps from meeting summaries. Return a JSON array of strings."

// mockSuggestions is what an unconfigured deployment hands back so the flow
// stays usable without an API key.
func mockSuggestions() []string {
	return []string{
		"Follow up on the discussion points",
		"Schedule the next sync meeting",
		"Email the stakeholders with the summary",
	}
}

// suggestNextSteps asks the model for short actionable strings derived from
// the given summary. Failures degrade to an empty list; derivation never
// fails the surrounding request.
func (a *app) suggestNextSteps(ctx context.Context, summary string) ([]string, error) {
	key := strings.TrimSpace(a.cfg.OpenAIAPIKey)
	if key == "" || key == "your_openai_api_key" {
		log.Println("[ai] OPENAI_API_KEY not set; returning mock suggestions")
		return mockSuggestions(), nil
	}

	body := openAIChatReq{
		Model: a.cfg.OpenAIModel,
		Messages: []openAIMessage{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: "Extract action items from this summary:\n\n" + summary},
		},
		Temperature: 0.3,
	}
	payload, _ := json.Marshal(body)

	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(a.cfg.OpenAIBaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Printf("[ai] upstream error: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	slurp, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		log.Printf("[ai] openai non-2xx: status=%d", resp.StatusCode)
		return nil, nil
	}

	var ai openAIChatResp
	if err := json.Unmarshal(slurp, &ai); err != nil || len(ai.Choices) == 0 {
		log.Printf("[ai] bad openai response: %v", err)
		return nil, nil
	}

	content := stripCodeFences(strings.TrimSpace(ai.Choices[0].Message.Content))

	var steps []string
	if err := json.Unmarshal([]byte(content), &steps); err != nil {
		log.Printf("[ai] response was not a JSON string array: %v", err)
		return nil, nil
	}
	return steps, nil
}

// stripCodeFences removes a surrounding markdown code block, which some
// models wrap around JSON output despite instructions.
func stripCodeFences(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
