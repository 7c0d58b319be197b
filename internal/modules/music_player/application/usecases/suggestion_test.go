package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionService_Disabled(t *testing.T) {
	service := NewSuggestionService(nil)

	assert.False(t, service.Enabled())

	_, err := service.SuggestOne(context.Background(), SuggestInput{Prompt: "rainy day"})
	assert.True(t, errors.Is(err, ErrSuggestionsDisabled), "got %v", err)

	_, err = service.SuggestMany(context.Background(), SuggestManyInput{Prompt: "rainy day"})
	assert.True(t, errors.Is(err, ErrSuggestionsDisabled), "got %v", err)
}

func TestSuggestionService_SuggestOne(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		raw     string
		rawErr  error
		want    string
		wantErr error
	}{
		{
			name:   "plain answer",
			prompt: "rainy day",
			raw:    "Radiohead - No Surprises",
			want:   "Radiohead - No Surprises",
		},
		{
			name:   "quoted answer",
			prompt: "rainy day",
			raw:    "  \"Radiohead - No Surprises\"\n",
			want:   "Radiohead - No Surprises",
		},
		{
			name:    "empty prompt",
			prompt:  "   ",
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "blank answer",
			prompt:  "rainy day",
			raw:     "  ",
			wantErr: ErrNoSuggestions,
		},
		{
			name:    "backend failure",
			prompt:  "rainy day",
			rawErr:  errors.New("connection refused"),
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSuggestionService(&mockSuggester{one: tt.raw, err: tt.rawErr})

			output, err := service.SuggestOne(context.Background(), SuggestInput{Prompt: tt.prompt})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, output.Query)
		})
	}
}

func TestSuggestionService_SuggestMany(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		raw       []string
		want      []string
		wantCount int
		wantErr   error
	}{
		{
			name:      "cleans list markers",
			count:     3,
			raw:       []string{"1. Daft Punk - Get Lucky", "2) Justice - D.A.N.C.E.", "- Air - La Femme d'Argent"},
			want:      []string{"Daft Punk - Get Lucky", "Justice - D.A.N.C.E.", "Air - La Femme d'Argent"},
			wantCount: 3,
		},
		{
			name:      "drops duplicates and blanks",
			count:     3,
			raw:       []string{"Song A", "", "song a", "Song B"},
			want:      []string{"Song A", "Song B"},
			wantCount: 3,
		},
		{
			name:      "caps at requested count",
			count:     2,
			raw:       []string{"Song A", "Song B", "Song C"},
			want:      []string{"Song A", "Song B"},
			wantCount: 2,
		},
		{
			name:      "zero count uses default",
			count:     0,
			raw:       []string{"Song A"},
			want:      []string{"Song A"},
			wantCount: DefaultSuggestionCount,
		},
		{
			name:      "count clamped to maximum",
			count:     50,
			raw:       []string{"Song A"},
			want:      []string{"Song A"},
			wantCount: MaxSuggestionCount,
		},
		{
			name:      "nothing usable",
			count:     3,
			raw:       []string{"", "  ", "-"},
			wantCount: 3,
			wantErr:   ErrNoSuggestions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggester := &mockSuggester{many: tt.raw}
			service := NewSuggestionService(suggester)

			output, err := service.SuggestMany(context.Background(), SuggestManyInput{
				Prompt: "late night drive",
				Count:  tt.count,
			})

			assert.Equal(t, tt.wantCount, suggester.lastCount)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, output.Queries)
		})
	}
}

func TestCleanSuggestion(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: "1. Song", want: "Song"},
		{line: "10) Song", want: "Song"},
		{line: "• Song", want: "Song"},
		{line: "* 'Song'", want: "Song"},
		{line: "`Song`", want: "Song"},
		{line: "99 Luftballons - Nena", want: "99 Luftballons - Nena"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSuggestion(tt.line))
		})
	}
}

func TestSuggestionService_MarksBackendFailure(t *testing.T) {
	backendErr := errors.New("connection refused")
	service := NewSuggestionService(&mockSuggester{err: backendErr})

	_, err := service.SuggestOne(context.Background(), SuggestInput{Prompt: "rainy day"})
	assert.True(t, errors.Is(err, ErrSuggesterFailure))
	assert.True(t, errors.Is(err, backendErr))

	_, err = service.SuggestMany(context.Background(), SuggestManyInput{Prompt: "rainy day"})
	assert.True(t, errors.Is(err, ErrSuggesterFailure))
}
