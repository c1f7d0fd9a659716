// Package prompts renders the instruction prompts sent to the model backends.
package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	// DefaultLocation is used when the caller gives no location.
	DefaultLocation = "Global"
	// DefaultContext is used when the caller gives no context.
	DefaultContext = "General climate query"
	// ArticleExcerptRunes bounds how much of a news article enters the prompt.
	ArticleExcerptRunes = 500
)

// AssistantInput feeds the climate assistant prompt
type AssistantInput struct {
	Question string
	Location string
	Context  string
}

// ActionPlanInput feeds the 30-day action plan prompt
type ActionPlanInput struct {
	Location  string
	Lifestyle string
	Concerns  string
}

// NewsInput feeds the news analysis prompt
type NewsInput struct {
	Headline string
	Article  string
}

// FootprintInput feeds the carbon footprint prompt
type FootprintInput struct {
	Transport string
	Energy    string
	Diet      string
	Shopping  string
	Location  string
}

var templates = template.Must(template.New("prompts").Parse(`
{{define "language"}}IMPORTANT: Your response language should match the language of {{.}}.
- If {{.}} is in English, respond in English.
- If {{.}} is in Hinglish or Hindi, respond in Hinglish.
- Default to English if the language is unclear.{{end}}

{{define "assistant"}}You are a climate scientist and activist assistant.
User Location: {{.Location}}
Context: {{.Context}}

User Question: "{{.Question}}"

{{template "language" "the user's question"}}

Provide:
1. Clear, scientific answer (but simple language)
2. Local relevance if location provided
3. 3 specific actions they can take TODAY
4. One inspiring fact or success story

Keep tone: Informative but hopeful. Urgent but not depressing.{{end}}

{{define "action_plan"}}Create a personalized 30-day climate action plan:

Location: {{.Location}}
Lifestyle: {{.Lifestyle}} (e.g., student, professional, family)
Main Concerns: {{.Concerns}}

{{template "language" "the user's \"Main Concerns\""}}

Generate:
1. Week 1-4 daily challenges (progressive difficulty)
2. Expected carbon reduction (kg CO2)
3. Cost savings estimate
4. Local resources/organizations
5. Social sharing messages

Make it:
- Specific and actionable
- Realistic for their lifestyle
- Measurable impact
- Community-oriented

Format as JSON with: {weeks: [{day: 1, challenge: "", impact: ""}]}{{end}}

{{define "news"}}Analyze this climate news article for the general public:

Headline: "{{.Headline}}"
Article: {{.Article}}...

Provide:
1. 🎯 Key Takeaway (1 sentence)
2. 🔬 What This Means (simplified science)
3. 😟 Impact Level (Low/Medium/High/Critical)
4. ✅ What You Can Do (3 actions)
5. 💡 Silver Lining (any positive aspect)

Be accurate but accessible. Avoid jargon.{{end}}

{{define "footprint"}}Calculate carbon footprint and provide reduction strategies:

Transportation: {{.Transport}}
Energy Use: {{.Energy}}
Diet Type: {{.Diet}}
Shopping Habits: {{.Shopping}}
Location: {{.Location}}

Provide:
1. Estimated annual CO2 (tons)
2. Comparison to country/global average
3. Breakdown by category (%)
4. Top 5 reduction strategies (specific to their data)
5. Potential savings (CO2 and money)

Be honest but motivating.{{end}}
`))

// Assistant renders the open question prompt.
func Assistant(in AssistantInput) (string, error) {
	in.Location = orDefault(in.Location, DefaultLocation)
	in.Context = orDefault(in.Context, DefaultContext)
	return render("assistant", in)
}

// ActionPlan renders the personalised action plan prompt.
func ActionPlan(in ActionPlanInput) (string, error) {
	return render("action_plan", in)
}

// News renders the news analysis prompt. Only the first ArticleExcerptRunes
// runes of the article are included.
func News(in NewsInput) (string, error) {
	in.Article = Truncate(in.Article, ArticleExcerptRunes)
	return render("news", in)
}

// Footprint renders the carbon footprint prompt.
func Footprint(in FootprintInput) (string, error) {
	in.Location = orDefault(in.Location, DefaultLocation)
	return render("footprint", in)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func render(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
