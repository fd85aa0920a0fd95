package classifier

import (
	"log/slog"
	"math"
	"strings"

	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/pkg/textnorm"
)

const (
	// FallbackConfidence is reported when no keyword matched at all.
	FallbackConfidence = 0.3

	// MaxKeywords caps ExtractKeywords output.
	MaxKeywords = 10

	// dominanceShare is the share of total signal the top category needs
	// to reach full confidence.
	dominanceShare = 0.8
)

// CategoryScore is the outcome of category classification.
type CategoryScore struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
}

// Score is the raw keyword score of one category.
type Score struct {
	Category models.Category `json:"category"`
	Score    int             `json:"score"`
}

// Classifier assigns category, priority and keyword tags to complaint text
// using substring matches against a static Dictionary. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	dict   *Dictionary
	logger *slog.Logger
}

// NewClassifier creates a classifier over dict. A nil dict uses DefaultDictionary.
func NewClassifier(dict *Dictionary, logger *slog.Logger) *Classifier {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Classifier{dict: dict, logger: logger}
}

// Dictionary returns the classifier's keyword tables.
func (c *Classifier) Dictionary() *Dictionary {
	return c.dict
}

// Classify runs the full pipeline over title and description joined by a single space.
func (c *Classifier) Classify(title, description string, departments []models.Department) models.ClassificationResult {
	raw := title + " " + description
	text := textnorm.Normalize(raw)

	cs := c.classifyCategory(text)
	result := models.ClassificationResult{
		Category:   cs.Category,
		Confidence: cs.Confidence,
		Priority:   c.determinePriority(text, cs.Category),
		Keywords:   c.extractKeywords(text),
		Sentiment:  c.analyzeSentiment(text),
	}

	for i := range departments {
		if departments[i].Handles(cs.Category) {
			result.SuggestedDepartmentID = departments[i].ID
			break
		}
	}

	c.logger.Debug("classified complaint",
		"category", result.Category,
		"confidence", result.Confidence,
		"priority", result.Priority,
		"department", result.SuggestedDepartmentID,
		"text_prefix", textnorm.Truncate(raw, 60),
	)
	return result
}

// ClassifyCategory picks the best-scoring category for text.
func (c *Classifier) ClassifyCategory(text string) CategoryScore {
	return c.classifyCategory(textnorm.Normalize(text))
}

// Scores returns every scored category's raw score in declaration order.
func (c *Classifier) Scores(text string) []Score {
	return c.scores(textnorm.Normalize(text))
}

// ExtractKeywords returns up to MaxKeywords dictionary keywords found in text,
// in dictionary scan order: categories first, then urgent, then high.
func (c *Classifier) ExtractKeywords(text string) []string {
	return c.extractKeywords(textnorm.Normalize(text))
}

// DeterminePriority applies urgent, high and low keywords in that order,
// falling back to the category default.
func (c *Classifier) DeterminePriority(text string, category models.Category) models.Priority {
	return c.determinePriority(textnorm.Normalize(text), category)
}

// AnalyzeSentiment is a whole-token tone estimate. It does not affect routing.
func (c *Classifier) AnalyzeSentiment(text string) models.Sentiment {
	return c.analyzeSentiment(textnorm.Normalize(text))
}

func (c *Classifier) scores(text string) []Score {
	out := make([]Score, 0, len(c.dict.categories))
	for _, ck := range c.dict.categories {
		score := 0
		if text != "" {
			for _, kw := range ck.keywords {
				if !strings.Contains(text, kw) {
					continue
				}
				if textnorm.IsPhrase(kw) {
					score += 2
				} else {
					score++
				}
			}
		}
		out = append(out, Score{Category: ck.category, Score: score})
	}
	return out
}

func (c *Classifier) classifyCategory(text string) CategoryScore {
	total := 0
	best := Score{Category: models.CategoryOther}
	for _, s := range c.scores(text) {
		total += s.Score
		// Strictly greater keeps the earliest category on ties.
		if s.Score > best.Score {
			best = s
		}
	}

	if total == 0 {
		return CategoryScore{Category: models.CategoryOther, Confidence: FallbackConfidence}
	}

	denom := math.Max(float64(total)*dominanceShare, 1)
	conf := math.Min(float64(best.Score)/denom, 1)
	return CategoryScore{
		Category:   best.Category,
		Confidence: math.Round(conf*100) / 100,
	}
}

func (c *Classifier) extractKeywords(text string) []string {
	found := make([]string, 0, MaxKeywords)
	if text == "" {
		return found
	}
	seen := make(map[string]struct{}, MaxKeywords)

	scan := func(kws []string) bool {
		for _, kw := range kws {
			if len(found) >= MaxKeywords {
				return false
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			if strings.Contains(text, kw) {
				seen[kw] = struct{}{}
				found = append(found, kw)
			}
		}
		return len(found) < MaxKeywords
	}

	for _, ck := range c.dict.categories {
		if !scan(ck.keywords) {
			return found
		}
	}
	if scan(c.dict.urgent) {
		scan(c.dict.high)
	}
	return found
}

func (c *Classifier) determinePriority(text string, category models.Category) models.Priority {
	if text != "" {
		if containsAny(text, c.dict.urgent) {
			return models.PriorityUrgent
		}
		if containsAny(text, c.dict.high) {
			return models.PriorityHigh
		}
		if containsAny(text, c.dict.low) {
			return models.PriorityLow
		}
	}
	return c.dict.DefaultPriority(category)
}

func (c *Classifier) analyzeSentiment(text string) models.Sentiment {
	score := 0
	for _, tok := range textnorm.Tokens(text) {
		if _, ok := c.dict.negative[tok]; ok {
			score--
		}
		if _, ok := c.dict.positive[tok]; ok {
			score++
		}
	}
	switch {
	case score < -1:
		return models.SentimentNegative
	case score > 0:
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

func containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
