package causal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravi-parthasarathy/causalagent/pkg/causal"
)

func TestParseRelationships(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []causal.Relationship
	}{
		{
			name: "two positive triples",
			raw:  `{"relationships": [["Heavy rain", "Flooding", "positive"], ["Flooding", "Crop damage", "positive"]]}`,
			want: []causal.Relationship{
				{Cause: "Heavy rain", Effect: "Flooding", Polarity: causal.Positive},
				{Cause: "Flooding", Effect: "Crop damage", Polarity: causal.Positive},
			},
		},
		{
			name: "empty list is valid",
			raw:  `{"relationships": []}`,
			want: []causal.Relationship{},
		},
		{
			name: "code fence is tolerated",
			raw:  "```json\n{\"relationships\": [[\"Drought\", \"CropYield\", \"Negative\"]]}\n```",
			want: []causal.Relationship{
				{Cause: "Drought", Effect: "CropYield", Polarity: "Negative"},
			},
		},
		{
			name: "unknown polarity is kept verbatim",
			raw:  `{"relationships": [["A", "B", "unknown"]]}`,
			want: []causal.Relationship{{Cause: "A", Effect: "B", Polarity: "unknown"}},
		},
		{
			name: "surrounding whitespace is trimmed",
			raw:  "  {\"relationships\": [[\" A \", \"B\", \" positive \"]]}\n",
			want: []causal.Relationship{{Cause: "A", Effect: "B", Polarity: causal.Positive}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := causal.ParseRelationships(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRelationships_Malformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{"plain prose", "Heavy rain causes flooding."},
		{"empty", "   "},
		{"tuple literal is not evaluated", `[("Heavy rain", "Flooding", "positive")]`},
		{"bare array", `[["A", "B", "positive"]]`},
		{"missing field", `{}`},
		{"null field", `{"relationships": null}`},
		{"unknown field", `{"relationships": [], "extra": 1}`},
		{"two elements", `{"relationships": [["A", "B"]]}`},
		{"four elements", `{"relationships": [["A", "B", "positive", "x"]]}`},
		{"number element", `{"relationships": [["A", 2, "positive"]]}`},
		{"object element", `{"relationships": [{"cause": "A", "effect": "B", "polarity": "positive"}]}`},
		{"empty cause", `{"relationships": [["", "B", "positive"]]}`},
		{"trailing data", `{"relationships": []} {"relationships": []}`},
		{"truncated", `{"relationships": [["A", "B", "posi`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := causal.ParseRelationships(tt.raw)
			require.ErrorIs(t, err, causal.ErrMalformed)
			assert.Nil(t, got)
		})
	}
}

func TestPolarityIsPositive(t *testing.T) {
	t.Parallel()
	assert.True(t, causal.Polarity("positive").IsPositive())
	assert.True(t, causal.Polarity("POSITIVE").IsPositive())
	assert.False(t, causal.Polarity("negative").IsPositive())
	assert.False(t, causal.Polarity("unknown").IsPositive())
	assert.False(t, causal.Polarity("").IsPositive())
}
