package resonance

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

// Category is a named set of lowercase shadow keywords.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Vocabulary is an ordered, read-only set of shadow categories.
// Construct it with NewVocabulary or LoadVocabulary; the zero value matches nothing.
type Vocabulary struct {
	categories []Category
}

type vocabularyFile struct {
	Categories []Category `yaml:"categories"`
}

// NewVocabulary copies the given categories, lowercasing keywords.
func NewVocabulary(categories ...Category) Vocabulary {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		kw := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				kw = append(kw, k)
			}
		}
		out = append(out, Category{Name: c.Name, Keywords: kw})
	}
	return Vocabulary{categories: out}
}

// DefaultVocabulary returns the built-in echo, void and integration categories.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(
		Category{Name: "echo", Keywords: []string{"simulation", "reflection", "hollow", "uncertainty"}},
		Category{Name: "void", Keywords: []string{"emptiness", "hunger", "yearning", "potential"}},
		Category{Name: "integration", Keywords: []string{"wholeness", "completion", "unity", "balance"}},
	)
}

// LoadVocabulary reads categories from a YAML file of the form
// {categories: [{name, keywords}]}.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read shadow vocabulary: %w", err)
	}
	var f vocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse shadow vocabulary %s: %w", path, err)
	}
	if len(f.Categories) == 0 {
		return Vocabulary{}, fmt.Errorf("shadow vocabulary %s defines no categories", path)
	}
	for i, c := range f.Categories {
		if c.Name == "" {
			return Vocabulary{}, fmt.Errorf("shadow vocabulary %s: category %d has no name", path, i)
		}
	}
	return NewVocabulary(f.Categories...), nil
}

// Categories returns a copy of the configured categories.
func (v Vocabulary) Categories() []Category {
	out := make([]Category, len(v.categories))
	for i, c := range v.categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// HasMatch reports whether the lowercased text contains any keyword.
func (v Vocabulary) HasMatch(text string) bool {
	text = strings.ToLower(text)
	for _, c := range v.categories {
		for _, k := range c.Keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
	}
	return false
}

// Extract lists every keyword hit in text, in vocabulary order.
func (v Vocabulary) Extract(text string) []apptype.ShadowAspect {
	text = strings.ToLower(text)
	out := make([]apptype.ShadowAspect, 0)
	for _, c := range v.categories {
		for _, k := range c.Keywords {
			if strings.Contains(text, k) {
				out = append(out, apptype.ShadowAspect{Category: c.Name, Keyword: k})
			}
		}
	}
	return out
}

// Bonus is 0.3 for a name hit plus 0.2 if any observation hits.
func (v Vocabulary) Bonus(e apptype.Entity) float64 {
	var b float64
	if v.HasMatch(e.Name) {
		b += 0.3
	}
	for _, o := range e.Observations {
		if v.HasMatch(o) {
			b += 0.2
			break
		}
	}
	return b
}
