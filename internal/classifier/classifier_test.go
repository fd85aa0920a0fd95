package classifier

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassify_WaterUrgentScenario(t *testing.T) {
	cls := newTestClassifier(t)
	depts := []models.Department{
		{ID: "d1", Categories: []models.Category{models.CategoryWater}, SLAHours: 24},
	}

	res := cls.Classify("No water in building A", "There has been no water supply for 3 days, very urgent issue", depts)

	assert.Equal(t, models.CategoryWater, res.Category)
	assert.Equal(t, models.PriorityUrgent, res.Priority)
	assert.Equal(t, "d1", res.SuggestedDepartmentID)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, []string{"water", "no water", "water supply", "building", "urgent"}, res.Keywords)
}

func TestClassify_EmptyInput(t *testing.T) {
	cls := newTestClassifier(t)

	res := cls.Classify("", "", nil)

	assert.Equal(t, models.CategoryOther, res.Category)
	assert.Equal(t, FallbackConfidence, res.Confidence)
	assert.Equal(t, models.PriorityNormal, res.Priority)
	require.NotNil(t, res.Keywords)
	assert.Empty(t, res.Keywords)
	assert.Empty(t, res.SuggestedDepartmentID)
	assert.Equal(t, models.SentimentNeutral, res.Sentiment)
}

func TestClassify_SuggestsFirstMatchingDepartment(t *testing.T) {
	cls := newTestClassifier(t)
	depts := []models.Department{
		{ID: "facilities", Categories: []models.Category{models.CategoryInfrastructure}},
		{ID: "power-a", Categories: []models.Category{models.CategoryElectrical}},
		{ID: "power-b", Categories: []models.Category{models.CategoryElectrical, models.CategoryWater}},
	}

	res := cls.Classify("Power cut in hostel", "There is a power cut since morning", depts)
	assert.Equal(t, models.CategoryElectrical, res.Category)
	assert.Equal(t, "power-a", res.SuggestedDepartmentID)
	assert.Equal(t, models.PriorityHigh, res.Priority, "electrical defaults to high")

	res = cls.Classify("Garbage", "garbage piling up near the gate", depts)
	assert.Equal(t, models.CategorySanitation, res.Category)
	assert.Empty(t, res.SuggestedDepartmentID)
}

func TestClassifyCategory(t *testing.T) {
	cls := newTestClassifier(t)

	tests := []struct {
		name       string
		text       string
		category   models.Category
		confidence float64
	}{
		{"no keywords", "the cafeteria menu changed", models.CategoryOther, 0.3},
		{"only punctuation", "!!! ???", models.CategoryOther, 0.3},
		{"single keyword uses floor denominator", "wifi", models.CategoryInternet, 1.0},
		{"substring containment", "watery floor", models.CategoryWater, 1.0},
		{"tie goes to earlier category", "water leak near the wall and broken door", models.CategoryWater, 0.5},
		{"three way split", "wifi router toilet trash guard", models.CategoryInternet, 0.5},
		{"phrase scores double", "power cut", models.CategoryElectrical, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cls.ClassifyCategory(tt.text)
			assert.Equal(t, tt.category, got.Category)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestScores_PhraseWeighting(t *testing.T) {
	cls := newTestClassifier(t)

	scores := cls.Scores("No POWER, power cut!")
	require.Len(t, scores, len(models.ScoredCategories()))
	assert.Equal(t, models.CategoryWater, scores[0].Category)
	// power(1) + no power(2) + power cut(2)
	assert.Equal(t, Score{Category: models.CategoryElectrical, Score: 5}, scores[1])
}

func TestConfidence_AlwaysInRange(t *testing.T) {
	cls := newTestClassifier(t)
	texts := []string{
		"",
		"water",
		"water power wifi building garbage theft repair",
		"no water no power no internet broken door lock stolen",
		"leak leak leak leak",
	}
	for _, text := range texts {
		res := cls.Classify(text, "", nil)
		assert.GreaterOrEqual(t, res.Confidence, 0.0, text)
		assert.LessOrEqual(t, res.Confidence, 1.0, text)
	}
}

func TestDeterminePriority(t *testing.T) {
	cls := newTestClassifier(t)

	tests := []struct {
		name     string
		text     string
		category models.Category
		want     models.Priority
	}{
		{"urgent beats category", "please fix my desk, urgent", models.CategoryMaintenance, models.PriorityUrgent},
		{"urgent beats low keyword", "minor issue but URGENT", models.CategoryOther, models.PriorityUrgent},
		{"urgent inside another word", "nonurgentish", models.CategoryOther, models.PriorityUrgent},
		{"high keyword", "the chair is broken", models.CategoryMaintenance, models.PriorityHigh},
		{"low keyword", "minor crack in the wall", models.CategoryInfrastructure, models.PriorityLow},
		{"water default", "tap drips", models.CategoryWater, models.PriorityHigh},
		{"security default", "cctv camera", models.CategorySecurity, models.PriorityHigh},
		{"sanitation default", "garbage near gate", models.CategorySanitation, models.PriorityNormal},
		{"maintenance default", "my desk wobbles", models.CategoryMaintenance, models.PriorityLow},
		{"other default", "nothing to see", models.CategoryOther, models.PriorityNormal},
		{"empty text", "", models.CategoryElectrical, models.PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cls.DeterminePriority(tt.text, tt.category))
		})
	}
}

func TestDeterminePriority_UrgentForEveryCategory(t *testing.T) {
	cls := newTestClassifier(t)
	for _, c := range models.ValidCategories {
		assert.Equal(t, models.PriorityUrgent, cls.DeterminePriority("minor thing, broken, Urgent!", c), c)
	}
}

func TestExtractKeywords(t *testing.T) {
	cls := newTestClassifier(t)

	t.Run("caps at ten in scan order", func(t *testing.T) {
		kws := cls.ExtractKeywords("water leak pipe tap plumbing power light socket switch wiring fan internet wifi")
		require.Len(t, kws, MaxKeywords)
		assert.Equal(t, []string{
			"water", "leak", "pipe", "tap", "plumbing",
			"power", "light", "socket", "switch", "wiring",
		}, kws)
	})

	t.Run("no duplicates across lists", func(t *testing.T) {
		kws := cls.ExtractKeywords("no water, sparking wire, broken")
		seen := map[string]bool{}
		for _, k := range kws {
			assert.False(t, seen[k], "duplicate %q", k)
			seen[k] = true
		}
		// "no water" and "broken" appear in category lists before the high list
		assert.Equal(t, []string{"water", "no water", "sparking", "broken"}, kws)
	})

	t.Run("priority lists follow categories", func(t *testing.T) {
		kws := cls.ExtractKeywords("emergency since yesterday")
		assert.Equal(t, []string{"emergency", "since yesterday"}, kws)
	})

	t.Run("low list is not extracted", func(t *testing.T) {
		assert.Empty(t, cls.ExtractKeywords("just a minor suggestion"))
	})

	t.Run("empty", func(t *testing.T) {
		kws := cls.ExtractKeywords("")
		require.NotNil(t, kws)
		assert.Empty(t, kws)
	})
}

func TestAnalyzeSentiment(t *testing.T) {
	cls := newTestClassifier(t)

	tests := []struct {
		text string
		want models.Sentiment
	}{
		{"This is terrible and the worst service", models.SentimentNegative},
		{"Thanks for the quick help", models.SentimentPositive},
		{"bad but thanks", models.SentimentNeutral},
		{"bad service", models.SentimentNeutral},
		{"badly", models.SentimentNeutral}, // whole tokens only
		{"", models.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, cls.AnalyzeSentiment(tt.text))
		})
	}
}

func TestClassify_DeterministicAndConcurrent(t *testing.T) {
	cls := newTestClassifier(t)
	depts := []models.Department{{ID: "net", Categories: []models.Category{models.CategoryInternet}}}
	want := cls.Classify("Wifi down", "no internet in the library since yesterday", depts)

	var wg sync.WaitGroup
	results := make([]models.ClassificationResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cls.Classify("Wifi down", "no internet in the library since yesterday", depts)
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.Equal(t, want, results[i])
	}
}
