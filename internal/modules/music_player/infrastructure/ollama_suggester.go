package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3"

const singleSongPrompt = `You are a music recommendation assistant for a Discord music bot.
When given a mood, activity, or vibe description, respond with ONLY a YouTube search query for a single song.
No explanations. No punctuation at the end. No quotation marks. No artist labels.
Just the search query itself, like you would type into YouTube.

Examples:
User: something chill for late night coding
You: Nujabes Feather

User: hype song for working out
You: Eminem Till I Collapse

User: sad rainy day vibes
You: Bon Iver Holocene

User: happy summer road trip
You: Daft Punk Get Lucky`

const songListPrompt = `You are a music recommendation assistant for a Discord music bot.
When given a mood, activity, or vibe, respond with EXACTLY %d YouTube search queries, one per line.
No numbering. No explanations. No punctuation. No quotation marks. Just raw search queries.

Example for "chill late night":
Nujabes Feather
Tame Impala The Less I Know The Better
Mac Miller Small Worlds
Khruangbin Lady And Man
J Dilla Donuts`

// OllamaSuggester asks a local Ollama model for song suggestions.
type OllamaSuggester struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaSuggester creates an OllamaSuggester. An empty model selects
// DefaultOllamaModel.
func NewOllamaSuggester(baseURL, model string) *OllamaSuggester {
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaSuggester{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // the first call loads the model
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the Ollama /api/chat response.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// SuggestOne returns the model's single search query for prompt.
func (s *OllamaSuggester) SuggestOne(ctx context.Context, prompt string) (string, error) {
	return s.chat(ctx, singleSongPrompt, prompt)
}

// SuggestMany returns the non-empty lines of the model's answer, at most
// count of them.
func (s *OllamaSuggester) SuggestMany(ctx context.Context, prompt string, count int) ([]string, error) {
	content, err := s.chat(ctx, fmt.Sprintf(songListPrompt, count), prompt)
	if err != nil {
		return nil, err
	}

	var lines []string
	for line := range strings.SplitSeq(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > count {
		lines = lines[:count]
	}
	return lines, nil
}

func (s *OllamaSuggester) chat(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: false,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "ollama request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Newf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Wrap(err, "decode chat response")
	}

	zlog.Debug().
		Str("model", s.model).
		Dur("took", time.Since(started)).
		Msg("Ollama answered")

	return strings.TrimSpace(result.Message.Content), nil
}

// Ensure OllamaSuggester implements ports.Suggester.
var _ ports.Suggester = (*OllamaSuggester)(nil)
