package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistant(t *testing.T) {
	t.Run("uses caller values", func(t *testing.T) {
		p, err := Assistant(AssistantInput{
			Question: "Why is Delhi so hot?",
			Location: "Delhi",
			Context:  "heatwave",
		})
		require.NoError(t, err)

		assert.Contains(t, p, `User Question: "Why is Delhi so hot?"`)
		assert.Contains(t, p, "User Location: Delhi")
		assert.Contains(t, p, "Context: heatwave")
		assert.Contains(t, p, "respond in Hinglish")
		assert.Contains(t, p, "3 specific actions they can take TODAY")
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		p, err := Assistant(AssistantInput{Question: "q", Location: "  "})
		require.NoError(t, err)

		assert.Contains(t, p, "User Location: Global")
		assert.Contains(t, p, "Context: General climate query")
	})

	t.Run("question text is not escaped", func(t *testing.T) {
		p, err := Assistant(AssistantInput{Question: `<b>"CO2" & me</b>`})
		require.NoError(t, err)
		assert.Contains(t, p, `<b>"CO2" & me</b>`)
	})
}

func TestActionPlan(t *testing.T) {
	p, err := ActionPlan(ActionPlanInput{Location: "Pune", Lifestyle: "student", Concerns: "pani ki kami"})
	require.NoError(t, err)

	assert.Contains(t, p, "Location: Pune")
	assert.Contains(t, p, "Lifestyle: student (e.g., student, professional, family)")
	assert.Contains(t, p, "Main Concerns: pani ki kami")
	assert.Contains(t, p, `the user's "Main Concerns"`)
	assert.Contains(t, p, `{weeks: [{day: 1, challenge: "", impact: ""}]}`)
}

func TestNews(t *testing.T) {
	t.Run("short article kept whole", func(t *testing.T) {
		p, err := News(NewsInput{Headline: "Glaciers retreat", Article: "Short body."})
		require.NoError(t, err)

		assert.Contains(t, p, `Headline: "Glaciers retreat"`)
		assert.Contains(t, p, "Article: Short body....")
		assert.Contains(t, p, "🎯 Key Takeaway")
		assert.NotContains(t, p, "respond in Hinglish")
	})

	t.Run("long article truncated on rune boundary", func(t *testing.T) {
		article := strings.Repeat("é", 600)
		p, err := News(NewsInput{Headline: "h", Article: article})
		require.NoError(t, err)

		assert.Contains(t, p, "Article: "+strings.Repeat("é", 500)+"...")
		assert.NotContains(t, p, strings.Repeat("é", 501))
	})
}

func TestFootprint(t *testing.T) {
	p, err := Footprint(FootprintInput{Transport: "car", Energy: "grid", Diet: "vegetarian", Shopping: "moderate"})
	require.NoError(t, err)

	assert.Contains(t, p, "Transportation: car")
	assert.Contains(t, p, "Energy Use: grid")
	assert.Contains(t, p, "Diet Type: vegetarian")
	assert.Contains(t, p, "Shopping Habits: moderate")
	assert.Contains(t, p, "Location: Global")
	assert.Contains(t, p, "Be honest but motivating.")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdef", 5, "abcde"},
		{"multibyte", "हिंदी", 2, "हि"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}
