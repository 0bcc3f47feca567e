package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"ideaboard/models"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// ClaudeService wraps the Anthropic Messages API for tag, prompt, summary
// and suggestion generation. Every operation is a single round trip with
// no retry. The service is advisory, so callers degrade on failure
// instead of blocking the pipeline.
type ClaudeService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClaudeService requires a credential up front. A missing key makes the
// whole service unavailable for the run; callers hold a nil service and
// skip every operation. An empty baseURL targets the public API; setting
// it routes calls through a proxy or a stand-in server.
func NewClaudeService(apiKey, model, baseURL string) (*ClaudeService, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &ClaudeService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

type messageRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete performs one Messages call and returns the concatenated text
// blocks of the response.
func (cs *ClaudeService) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:     cs.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cs.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cs.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic response: %w", err)
	}

	var parsed messageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("anthropic: %s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// ExtractTags derives up to maxTags keywords from free text. Any service
// or parse failure is absorbed into an empty list.
func (cs *ClaudeService) ExtractTags(ctx context.Context, text string, maxTags int) []string {
	prompt := fmt.Sprintf(
		"Extract up to %d relevant tags from this project description.\n"+
			"Return only the tags as a JSON array of strings.\n\nDescription: %s",
		maxTags, text)

	content, err := cs.complete(ctx,
		"You extract relevant keywords as tags from text. Respond only with a JSON array of strings.",
		prompt, 100)
	if err != nil {
		log.Printf("Tag extraction failed: %v", err)
		return []string{}
	}
	return ExtractJSONArray(content)
}

// Generate3DPrompt elaborates the project fields into a detailed prompt
// for text-to-3D generation. Returned as-is.
func (cs *ClaudeService) Generate3DPrompt(ctx context.Context, concept, projectType, genre, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Create a detailed 3D model description for:\n"+
			"- Concept: %s\n- Project Type: %s\n- Genre: %s\n- Description: %s\n\n"+
			"Provide specific details about shape, texture, color, and proportions "+
			"that would help a 3D modeling system create an appropriate model. "+
			"Include details about materials, lighting, and environment if relevant.",
		concept, projectType, genre, description)

	return cs.complete(ctx, "", prompt, 500)
}

// SummarizeProject produces a short whitespace-trimmed project summary.
func (cs *ClaudeService) SummarizeProject(ctx context.Context, concept, projectType, genre, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Create a concise summary (2-3 sentences) for this Blender project:\n"+
			"- Concept: %s\n- Project Type: %s\n- Genre: %s\n- Description: %s",
		concept, projectType, genre, description)

	content, err := cs.complete(ctx, "", prompt, 200)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// SuggestImprovements asks for 3-5 concrete suggestions for the session.
// Same empty-list-on-failure contract as ExtractTags.
func (cs *ClaudeService) SuggestImprovements(ctx context.Context, s *models.Session) []string {
	prompt := fmt.Sprintf(
		"Suggest 3-5 specific improvements or additions for this Blender project:\n"+
			"- Concept: %s\n- Project Type: %s\n- Genre: %s\n- Description: %s\n\n"+
			"Format your response as a JSON array of strings, where each string is a specific suggestion.",
		s.Title, s.ProjectType, s.Genre, s.Description)

	content, err := cs.complete(ctx,
		"You provide helpful suggestions for 3D design projects. Respond only with a JSON array of strings.",
		prompt, 350)
	if err != nil {
		log.Printf("Suggestion generation failed: %v", err)
		return []string{}
	}
	return ExtractJSONArray(content)
}

// ExtractJSONArray locates the first syntactically valid JSON array inside
// free-form model output, which may surround it with prose. String
// elements are kept in order; anything else, or no array at all, yields an
// empty list rather than an error.
func ExtractJSONArray(raw string) []string {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		var val []any
		if err := dec.Decode(&val); err != nil {
			continue
		}
		out := make([]string, 0, len(val))
		for _, v := range val {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
