package press

import (
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultNames maps publisher domains to canonical Korean press names.
var defaultNames = map[string]string{
	"chosun.com":           "조선일보",
	"yna.co.kr":            "연합뉴스",
	"hani.co.kr":           "한겨레",
	"joongang.co.kr":       "중앙일보",
	"mbn.co.kr":            "MBN",
	"kbs.co.kr":            "KBS",
	"sbs.co.kr":            "SBS",
	"ytn.co.kr":            "YTN",
	"donga.com":            "동아일보",
	"segye.com":            "세계일보",
	"munhwa.com":           "문화일보",
	"newsis.com":           "뉴시스",
	"naver.com":            "네이버",
	"daum.net":             "다음",
	"kukinews.com":         "국민일보",
	"kookbang.dema.mil.kr": "국방일보",
	"edaily.co.kr":         "이데일리",
	"news1.kr":             "뉴스1",
	"mbnmoney.mbn.co.kr":   "MBN",
	"news.kmib.co.kr":      "국민일보",
	"jtbc.co.kr":           "JTBC",
}

// Table resolves article URLs to publisher names and answers major-press
// membership queries. Read-only after construction, safe for concurrent use.
type Table struct {
	names map[string]string
	major map[string]struct{}
}

func NewTable(names map[string]string) *Table {
	t := &Table{
		names: names,
		major: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		t.major[name] = struct{}{}
	}
	return t
}

func Default() *Table {
	return NewTable(defaultNames)
}

type fileConfig struct {
	Publishers map[string]string `yaml:"publishers"`
}

// Load reads a publisher table from a YAML file. A missing file is not an
// error; the built-in table is returned instead.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg fileConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Publishers) == 0 {
		return Default(), nil
	}
	return NewTable(cfg.Publishers), nil
}

// Resolve extracts the domain from rawURL and maps it to a canonical press
// name via longest-suffix match. Unknown domains resolve to the raw domain
// string; unparseable URLs resolve to empty strings.
func (t *Table) Resolve(rawURL string) (domain, name string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ""
	}
	domain = strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	best := ""
	for key, n := range t.names {
		if domain == key || strings.HasSuffix(domain, "."+key) {
			if len(key) > len(best) {
				best = key
				name = n
			}
		}
	}
	if name == "" {
		name = domain
	}
	return domain, name
}

// ResolveName resolves the press name for an article, preferring the
// publisher-direct URL, then the aggregator URL, then the source-supplied
// press field.
func (t *Table) ResolveName(originalURL, articleURL, supplied string) string {
	for _, u := range []string{originalURL, articleURL} {
		if u == "" {
			continue
		}
		if _, name := t.Resolve(u); name != "" {
			return name
		}
	}
	return supplied
}

// IsMajor reports whether name is a canonical major-press name. Matching is
// exact and case-sensitive.
func (t *Table) IsMajor(name string) bool {
	_, ok := t.major[name]
	return ok
}

// MobileLink rewrites a Naver article link to its mobile form.
func MobileLink(u string) string {
	if strings.Contains(u, "n.news.naver.com/article") {
		return strings.Replace(u, "n.news.naver.com/article", "n.news.naver.com/mnews/article", 1)
	}
	return u
}
