package usecases

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sglre6355/mtube/internal/modules/music_player/application/ports"
)

// Bounds for the number of songs requested from the suggestion backend.
const (
	DefaultSuggestionCount = 5
	MaxSuggestionCount     = 10
)

// listMarkerPattern matches "1. ", "2) ", "- ", "* " style prefixes.
var listMarkerPattern = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// SuggestInput contains the input for the SuggestOne use case.
type SuggestInput struct {
	Prompt string
}

// SuggestOutput contains the result of the SuggestOne use case.
type SuggestOutput struct {
	Query string
}

// SuggestManyInput contains the input for the SuggestMany use case.
type SuggestManyInput struct {
	Prompt string
	Count  int // 0 means DefaultSuggestionCount
}

// SuggestManyOutput contains the result of the SuggestMany use case.
type SuggestManyOutput struct {
	Queries []string
}

// SuggestionService turns mood prompts into search queries. Callers feed
// each query through the player like any user query.
type SuggestionService struct {
	suggester ports.Suggester
}

// NewSuggestionService creates a new SuggestionService. A nil suggester
// disables suggestions.
func NewSuggestionService(suggester ports.Suggester) *SuggestionService {
	return &SuggestionService{
		suggester: suggester,
	}
}

// Enabled reports whether a suggestion backend is configured.
func (s *SuggestionService) Enabled() bool {
	return s.suggester != nil
}

// SuggestOne returns a single search query for the prompt.
func (s *SuggestionService) SuggestOne(ctx context.Context, input SuggestInput) (*SuggestOutput, error) {
	prompt, err := s.validate(input.Prompt)
	if err != nil {
		return nil, err
	}

	raw, err := s.suggester.SuggestOne(ctx, prompt)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "suggest song"), ErrSuggesterFailure)
	}

	query := CleanSuggestion(raw)
	if query == "" {
		return nil, ErrNoSuggestions
	}
	return &SuggestOutput{Query: query}, nil
}

// SuggestMany returns up to Count distinct search queries for the prompt.
func (s *SuggestionService) SuggestMany(ctx context.Context, input SuggestManyInput) (*SuggestManyOutput, error) {
	prompt, err := s.validate(input.Prompt)
	if err != nil {
		return nil, err
	}

	count := input.Count
	if count <= 0 {
		count = DefaultSuggestionCount
	}
	count = min(count, MaxSuggestionCount)

	raw, err := s.suggester.SuggestMany(ctx, prompt, count)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "suggest songs"), ErrSuggesterFailure)
	}

	seen := make(map[string]bool, len(raw))
	queries := make([]string, 0, count)
	for _, line := range raw {
		query := CleanSuggestion(line)
		key := strings.ToLower(query)
		if query == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, query)
		if len(queries) == count {
			break
		}
	}

	if len(queries) == 0 {
		return nil, ErrNoSuggestions
	}
	return &SuggestManyOutput{Queries: queries}, nil
}

func (s *SuggestionService) validate(prompt string) (string, error) {
	if s.suggester == nil {
		return "", ErrSuggestionsDisabled
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyQuery
	}
	return prompt, nil
}

// CleanSuggestion strips list markers and quotes from a model-produced line.
func CleanSuggestion(line string) string {
	line = listMarkerPattern.ReplaceAllString(strings.TrimSpace(line), "")
	line = strings.Trim(line, "\"'`")
	return strings.TrimSpace(line)
}
