package classifier

import (
	"Pantry-Ledger/domain"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v2"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

var ErrEmptyRuleSet = errors.New("keyword rule set is empty")

type (
	Rule struct {
		Keywords      []string           `yaml:"keywords"`
		Category      string             `yaml:"category"`
		Subcategory   string             `yaml:"subcategory"`
		StorageType   domain.StorageType `yaml:"storage"`
		ShelfLifeDays *int               `yaml:"shelf_life_days"`
		IsFood        *bool              `yaml:"is_food"`
	}

	// RuleSet is an ordered, immutable keyword table. Match returns the first
	// rule, in declaration order, with a keyword contained in the name.
	RuleSet struct {
		rules []Rule
	}

	ruleFile struct {
		Rules []Rule `yaml:"rules"`
	}
)

// DefaultRules returns the built-in keyword table.
func DefaultRules() *RuleSet {
	rs, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded rules: %v", err))
	}
	return rs
}

// LoadRules reads a keyword table from path. An empty path yields the
// built-in table.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*RuleSet, error) {
	var f ruleFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d: category is required", i)
		}
		if r.StorageType == "" {
			r.StorageType = domain.StorageAmbient
		}
		if !r.StorageType.Valid() {
			return nil, fmt.Errorf("rule %d: unknown storage type %q", i, r.StorageType)
		}
		if r.ShelfLifeDays != nil && *r.ShelfLifeDays < 0 {
			return nil, fmt.Errorf("rule %d: negative shelf life", i)
		}

		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = normalizeKeyword(kw)
			if strings.TrimSpace(kw) == "" {
				continue
			}
			keywords = append(keywords, kw)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
		r.Keywords = keywords
		rules = append(rules, r)
	}

	if len(rules) == 0 {
		return nil, ErrEmptyRuleSet
	}
	return &RuleSet{rules: rules}, nil
}

// normalizeKeyword applies the same folding as product names but keeps
// surrounding spaces, which some keywords use as a word boundary.
func normalizeKeyword(kw string) string {
	return strings.ToLower(norm.NFKC.String(kw))
}

func (rs *RuleSet) Len() int { return len(rs.rules) }

// Match looks up an already normalized name.
func (rs *RuleSet) Match(name string) (domain.ProductInfo, string, bool) {
	for _, r := range rs.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(name, kw) {
				return r.info(), kw, true
			}
		}
	}
	return domain.ProductInfo{}, "", false
}

func (r Rule) info() domain.ProductInfo {
	isFood := true
	if r.IsFood != nil {
		isFood = *r.IsFood
	}
	info := domain.ProductInfo{
		Category:    r.Category,
		Subcategory: r.Subcategory,
		StorageType: r.StorageType,
		IsFood:      isFood,
	}
	if r.ShelfLifeDays != nil {
		days := *r.ShelfLifeDays
		info.ShelfLifeDays = &days
	}
	return info
}
