package keyword

import "strings"

// DefaultKeywords is the built-in military/defense vocabulary used when a
// request carries no keywords of its own.
var DefaultKeywords = []string{
	"육군", "국방", "외교", "안보", "북한",
	"신병교육대", "훈련", "간부", "장교",
	"부사관", "병사", "용사", "군무원",
}

// defaultCompounds maps multi-morpheme keywords to the independent search
// terms they expand into.
var defaultCompounds = map[string][]string{
	"신병교육대": {"신병", "교육대"},
	"군사훈련":  {"군사", "훈련"},
}

type Expander struct {
	Defaults  []string
	Compounds map[string][]string
}

func NewExpander() *Expander {
	return &Expander{
		Defaults:  DefaultKeywords,
		Compounds: defaultCompounds,
	}
}

// Expand normalizes a raw comma-separated keyword string into an ordered list
// of distinct, trimmed query terms. An empty input falls back to the default
// vocabulary. Never returns an empty list.
func (e *Expander) Expand(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			terms = append(terms, kw)
		}
	}

	if len(terms) == 0 {
		terms = e.Defaults
	}

	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	add := func(kw string) {
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	for _, kw := range terms {
		if parts, ok := e.Compounds[kw]; ok {
			for _, p := range parts {
				add(p)
			}
			continue
		}
		add(kw)
	}

	return out
}
