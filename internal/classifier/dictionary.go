package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/complaint-router/internal/models"
	"github.com/ajitpratap0/complaint-router/pkg/textnorm"
)

// DictionarySpec is the editable shape of a keyword dictionary, as read from YAML.
// A nil section inherits the built-in default; a present section replaces it.
type DictionarySpec struct {
	Categories      map[models.Category][]string        `yaml:"categories"`
	Priority        *PrioritySpec                       `yaml:"priority"`
	DefaultPriority map[models.Category]models.Priority `yaml:"default_priority"`
	Sentiment       *SentimentSpec                      `yaml:"sentiment"`
}

// PrioritySpec holds the priority keyword lists, checked urgent first, then high, then low.
type PrioritySpec struct {
	Urgent []string `yaml:"urgent"`
	High   []string `yaml:"high"`
	Low    []string `yaml:"low"`
}

// SentimentSpec holds whole-token sentiment word lists.
type SentimentSpec struct {
	Negative []string `yaml:"negative"`
	Positive []string `yaml:"positive"`
}

type categoryKeywords struct {
	category models.Category
	keywords []string
}

// Dictionary is an immutable, normalized keyword table. Build one with
// DefaultDictionary, NewDictionary or LoadDictionary.
type Dictionary struct {
	categories      []categoryKeywords // models.ScoredCategories order
	urgent          []string
	high            []string
	low             []string
	defaultPriority map[models.Category]models.Priority
	negative        map[string]struct{}
	positive        map[string]struct{}
}

// defaultSpec is the built-in dictionary. Keyword order within a list decides
// which keywords make the 10-entry cap in ExtractKeywords.
var defaultSpec = DictionarySpec{
	Categories: map[models.Category][]string{
		models.CategoryWater: {
			"water", "no water", "water supply", "leak", "leaking", "pipe", "burst pipe",
			"tap", "plumbing", "low pressure", "drinking water", "water tank", "faucet",
		},
		models.CategoryElectrical: {
			"electricity", "power", "no power", "power cut", "power outage", "light",
			"socket", "switch", "wiring", "fan", "short circuit", "voltage", "fuse",
			"generator", "sparking",
		},
		models.CategoryInternet: {
			"internet", "wifi", "wi-fi", "network", "connection", "slow internet",
			"no internet", "router", "lan cable", "bandwidth", "signal", "disconnect",
			"ethernet",
		},
		models.CategoryInfrastructure: {
			"building", "road", "wall", "ceiling", "roof", "door", "window", "stairs",
			"elevator", "lift", "crack", "parking", "pothole", "construction", "bench",
		},
		models.CategorySanitation: {
			"garbage", "trash", "waste", "toilet", "washroom", "bathroom", "dirty",
			"smell", "sewage", "drain", "blocked drain", "cleaning", "dustbin", "pest",
			"mosquito",
		},
		models.CategorySecurity: {
			"security", "theft", "stolen", "guard", "cctv", "camera", "unsafe",
			"harassment", "intruder", "door lock", "broken lock", "trespass",
			"suspicious", "fight",
		},
		models.CategoryMaintenance: {
			"repair", "maintenance", "broken", "fix", "replace", "damaged",
			"not working", "furniture", "chair", "desk", "cupboard", "paint",
			"air conditioner", "air conditioning",
		},
		models.CategoryOther: {},
	},
	Priority: &PrioritySpec{
		Urgent: []string{
			"urgent", "emergency", "immediately", "asap", "danger", "dangerous", "fire",
			"sparking", "short circuit", "flooding", "injury", "injured", "gas leak",
			"electric shock", "life threatening",
		},
		High: []string{
			"not working", "no water", "no power", "no internet", "broken", "outage",
			"leaking", "overflow", "theft", "stolen", "unsafe", "several days",
			"since yesterday", "health",
		},
		Low: []string{
			"minor", "small", "suggestion", "cosmetic", "when possible", "whenever",
			"request", "slight", "not a big deal",
		},
	},
	DefaultPriority: map[models.Category]models.Priority{
		models.CategoryElectrical:     models.PriorityHigh,
		models.CategoryWater:          models.PriorityHigh,
		models.CategorySecurity:       models.PriorityHigh,
		models.CategoryInfrastructure: models.PriorityNormal,
		models.CategoryInternet:       models.PriorityNormal,
		models.CategorySanitation:     models.PriorityNormal,
		models.CategoryMaintenance:    models.PriorityLow,
	},
	Sentiment: &SentimentSpec{
		Negative: []string{
			"bad", "terrible", "awful", "horrible", "worst", "poor", "angry", "frustrated",
			"frustrating", "disappointed", "unacceptable", "useless", "annoying", "dirty",
			"broken", "slow", "disgusting", "pathetic", "hate",
		},
		Positive: []string{
			"good", "great", "excellent", "thanks", "thank", "appreciate", "helpful",
			"happy", "satisfied", "quick", "nice", "please",
		},
	},
}

// DefaultDictionary returns the built-in keyword dictionary.
func DefaultDictionary() *Dictionary {
	d, err := NewDictionary(DictionarySpec{})
	if err != nil {
		// The built-in spec is static; failing here is a programming error.
		panic(fmt.Sprintf("classifier: invalid built-in dictionary: %v", err))
	}
	return d
}

// NewDictionary builds a normalized dictionary from spec, filling nil sections
// from the built-in defaults.
func NewDictionary(spec DictionarySpec) (*Dictionary, error) {
	cats := spec.Categories
	if cats == nil {
		cats = defaultSpec.Categories
	}
	for c, kws := range cats {
		if !c.IsValid() {
			return nil, fmt.Errorf("unknown category %q", c)
		}
		if c == models.CategoryOther && len(normalizeAll(kws)) > 0 {
			return nil, fmt.Errorf("category %q is the fallback and must not have keywords", c)
		}
	}

	prio := spec.Priority
	if prio == nil {
		prio = defaultSpec.Priority
	}

	defaults := spec.DefaultPriority
	if defaults == nil {
		defaults = defaultSpec.DefaultPriority
	}
	for c, p := range defaults {
		if !c.IsValid() {
			return nil, fmt.Errorf("default_priority: unknown category %q", c)
		}
		if !p.IsValid() {
			return nil, fmt.Errorf("default_priority: invalid priority %q for %s", p, c)
		}
	}

	sent := spec.Sentiment
	if sent == nil {
		sent = defaultSpec.Sentiment
	}

	d := &Dictionary{
		urgent:          normalizeAll(prio.Urgent),
		high:            normalizeAll(prio.High),
		low:             normalizeAll(prio.Low),
		defaultPriority: make(map[models.Category]models.Priority, len(defaults)),
		negative:        toSet(sent.Negative),
		positive:        toSet(sent.Positive),
	}
	for _, c := range models.ScoredCategories() {
		d.categories = append(d.categories, categoryKeywords{category: c, keywords: normalizeAll(cats[c])})
	}
	for c, p := range defaults {
		d.defaultPriority[c] = p
	}
	return d, nil
}

// LoadDictionary reads a YAML dictionary file.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var spec DictionarySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse dictionary yaml: %w", err)
	}
	d, err := NewDictionary(spec)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	return d, nil
}

// Keywords returns a copy of the normalized keyword list for a category.
func (d *Dictionary) Keywords(c models.Category) []string {
	for _, ck := range d.categories {
		if ck.category == c {
			return append([]string(nil), ck.keywords...)
		}
	}
	return nil
}

// DefaultPriority returns the fallback priority for a category, "normal" when unmapped.
func (d *Dictionary) DefaultPriority(c models.Category) models.Priority {
	if p, ok := d.defaultPriority[c]; ok {
		return p
	}
	return models.PriorityNormal
}

// normalizeAll normalizes keywords in order, dropping empties and duplicates.
// An empty keyword would be a substring of every text.
func normalizeAll(kws []string) []string {
	out := make([]string, 0, len(kws))
	seen := make(map[string]struct{}, len(kws))
	for _, kw := range kws {
		n := textnorm.Normalize(kw)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range normalizeAll(words) {
		set[w] = struct{}{}
	}
	return set
}
