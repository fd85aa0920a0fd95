package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ajitpratap0/complaint-router/pkg/textnorm"
	"github.com/ajitpratap0/complaint-router/pkg/xmlutil"
)

// narrativeMaxTokens caps Claude's response length for the briefing.
const narrativeMaxTokens = 512

// Narrator turns a report into a short human-readable briefing.
type Narrator interface {
	Narrate(ctx context.Context, rep *Report) (string, error)
}

// ClaudeNarrator writes the briefing with Claude.
type ClaudeNarrator struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClaudeNarrator creates a ClaudeNarrator.
func NewClaudeNarrator(apiKey, model string, logger *slog.Logger) *ClaudeNarrator {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeNarrator{
		client: &c,
		model:  model,
		logger: logger,
	}
}

// Narrate asks Claude for a briefing. Report data is embedded as escaped XML.
func (n *ClaudeNarrator) Narrate(ctx context.Context, rep *Report) (string, error) {
	prompt := BuildPrompt(rep)
	n.logger.Debug("requesting claude narrative", "model", n.model, "prompt_tokens_est", textnorm.EstimateTokens(prompt))

	resp, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(n.model),
		MaxTokens: narrativeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You brief facility managers on complaint trends. Write at most five plain sentences. Only use the data provided."},
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			if text := strings.TrimSpace(resp.Content[i].Text); text != "" {
				n.logger.Debug("claude narrative", "chars", len(text))
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("empty response from Claude")
}

// BuildPrompt renders the report as the XML-delimited narrator prompt.
func BuildPrompt(rep *Report) string {
	var b strings.Builder
	b.WriteString("Summarize these complaint statistics for the operations team.\n\n<report>\n")
	fmt.Fprintf(&b, "<total>%d</total>\n", rep.Total)
	for _, p := range rep.Patterns {
		b.WriteString("<pattern>")
		b.WriteString(xmlutil.Element("category", string(p.Category)))
		fmt.Fprintf(&b, "<frequency>%d</frequency>", p.Frequency)
		b.WriteString(xmlutil.Element("trend", string(p.Trend)))
		b.WriteString(xmlutil.Element("peak_days", strings.Join(p.PeakDays, ", ")))
		b.WriteString("</pattern>\n")
	}
	for _, d := range rep.Departments {
		b.WriteString("<department>")
		b.WriteString(xmlutil.Element("name", d.Name))
		fmt.Fprintf(&b, "<total>%d</total><open>%d</open><breached>%d</breached><compliance>%.1f</compliance>",
			d.Total, d.Open, d.Breached, d.Compliance)
		b.WriteString("</department>\n")
	}
	b.WriteString("</report>")
	return b.String()
}

// TemplateNarrator builds the briefing from the pattern recommendations
// without calling out to a model.
type TemplateNarrator struct{}

// Narrate never fails.
func (TemplateNarrator) Narrate(_ context.Context, rep *Report) (string, error) {
	if rep.Total == 0 {
		return "No complaints in the selected period.", nil
	}
	lines := []string{fmt.Sprintf("%d complaints analyzed.", rep.Total)}
	for _, p := range rep.Patterns {
		lines = append(lines, p.Recommendation)
	}
	worst := -1
	for i, d := range rep.Departments {
		if d.Total == 0 {
			continue
		}
		if worst < 0 || d.Compliance < rep.Departments[worst].Compliance {
			worst = i
		}
	}
	if worst >= 0 && rep.Departments[worst].Compliance < 100 {
		d := rep.Departments[worst]
		lines = append(lines, fmt.Sprintf("Lowest SLA compliance: %s at %.1f%% (%d of %d breached).", d.Name, d.Compliance, d.Breached, d.Total))
	}
	return strings.Join(lines, " "), nil
}
