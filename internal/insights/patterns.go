// Package insights derives aggregate reports from historical complaints.
package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ajitpratap0/complaint-router/internal/models"
)

const (
	// increasingShare and stableShare are share-of-volume percentages, not
	// period-over-period changes.
	increasingShare = 20
	stableShare     = 10

	peakDayCount = 2
)

type dayCount struct {
	day   string
	count int
}

type categoryBucket struct {
	category models.Category
	count    int
	days     []dayCount // first-seen order
}

func (b *categoryBucket) addDay(day string) {
	for i := range b.days {
		if b.days[i].day == day {
			b.days[i].count++
			return
		}
	}
	b.days = append(b.days, dayCount{day: day, count: 1})
}

// peakDays returns up to peakDayCount weekdays by volume. Ties keep the
// order in which the weekdays were first seen in the input.
func (b *categoryBucket) peakDays() []string {
	days := append([]dayCount(nil), b.days...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].count > days[j].count })
	n := min(peakDayCount, len(days))
	out := make([]string, 0, n)
	for _, d := range days[:n] {
		out = append(out, d.day)
	}
	return out
}

// AnalyzePatterns groups samples by category and reports each category's
// share of the total, its trend band, its two busiest weekdays and a
// templated recommendation. Results are sorted by frequency, highest first;
// equal frequencies keep first-seen category order. Weekdays are taken in
// each timestamp's own location.
func AnalyzePatterns(samples []models.PatternSample) []models.PatternInsight {
	insights := make([]models.PatternInsight, 0)
	if len(samples) == 0 {
		return insights
	}

	var buckets []*categoryBucket
	index := make(map[models.Category]*categoryBucket)
	for i := range samples {
		b, ok := index[samples[i].Category]
		if !ok {
			b = &categoryBucket{category: samples[i].Category}
			index[samples[i].Category] = b
			buckets = append(buckets, b)
		}
		b.count++
		b.addDay(samples[i].CreatedAt.Weekday().String())
	}

	total := float64(len(samples))
	for _, b := range buckets {
		freq := int(math.Round(float64(b.count) / total * 100))
		trend := TrendFor(freq)
		peaks := b.peakDays()
		insights = append(insights, models.PatternInsight{
			Category:       b.category,
			Frequency:      freq,
			Trend:          trend,
			PeakDays:       peaks,
			Recommendation: recommend(b.category, freq, trend, peaks),
		})
	}

	sort.SliceStable(insights, func(i, j int) bool { return insights[i].Frequency > insights[j].Frequency })
	return insights
}

// TrendFor maps a share-of-volume percentage to a trend band.
func TrendFor(frequency int) models.Trend {
	switch {
	case frequency > increasingShare:
		return models.TrendIncreasing
	case frequency > stableShare:
		return models.TrendStable
	default:
		return models.TrendDecreasing
	}
}

func recommend(c models.Category, freq int, trend models.Trend, peaks []string) string {
	days := strings.Join(peaks, " and ")
	switch trend {
	case models.TrendIncreasing:
		return fmt.Sprintf("High volume of %s complaints (%d%%). Schedule preventive work and extra staff on %s.", c, freq, days)
	case models.TrendStable:
		return fmt.Sprintf("Steady %s complaint volume (%d%%). Monitor activity on %s.", c, freq, days)
	default:
		return fmt.Sprintf("Low %s complaint volume (%d%%). Current handling is adequate.", c, freq)
	}
}
