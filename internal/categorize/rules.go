package categorize

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NgigiN/ledger/internal/storage"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Rules is scanned in order; the first rule with a matching keyword wins, so
// order is the tie-break between categories sharing a keyword.
type Rules []Rule

type rulesFile struct {
	Rules Rules `yaml:"rules"`
}

var ErrInvalidRules = errors.New("invalid rule table")

// DefaultRules returns the built-in keyword table.
func DefaultRules() Rules {
	return Rules{
		{Category: "Groceries", Keywords: []string{"grocery", "supermarket", "food", "market", "whole foods", "walmart", "target", "safeway", "kroger", "aldi"}},
		{Category: "Dining", Keywords: []string{"restaurant", "cafe", "coffee", "dinner", "lunch", "breakfast", "pizza", "burger", "starbucks", "mcdonald", "taco", "sushi"}},
		{Category: "Transportation", Keywords: []string{"gas", "fuel", "uber", "lyft", "taxi", "train", "transit", "parking", "bus", "subway", "metro", "chevron", "shell"}},
		{Category: "Shopping", Keywords: []string{"amazon", "store", "shop", "mall", "clothing", "retail", "purchase", "ebay", "etsy", "gap", "apple store"}},
		{Category: "Entertainment", Keywords: []string{"movie", "theater", "cinema", "netflix", "spotify", "hulu", "disney", "ticket", "concert", "event", "game", "amc"}},
		{Category: "Utilities", Keywords: []string{"electric", "water", "gas", "power", "utility", "internet", "phone", "bill", "service", "cable", "broadband"}},
		{Category: "Housing", Keywords: []string{"rent", "mortgage", "property", "apartment", "home", "house", "real estate", "hoa", "maintenance"}},
		{Category: "Health", Keywords: []string{"doctor", "medical", "pharmacy", "healthcare", "dental", "hospital", "clinic", "medicine", "prescription", "walgreens", "cvs"}},
		{Category: "Income", Keywords: []string{"salary", "deposit", "payroll", "payment", "income", "direct deposit", "wage", "transfer", "refund", "tax return"}},
		{Category: "Subscriptions", Keywords: []string{"subscription", "membership", "monthly", "annual", "recurring", "fee"}},
	}
}

// LoadRules reads a rule table from YAML:
//
//	rules:
//	  - category: Groceries
//	    keywords: [grocery, supermarket]
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := f.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Rules, nil
}

// Validate rejects empty tables, blank names or keywords, and repeated categories.
func (r Rules) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("%w: no rules", ErrInvalidRules)
	}
	seen := make(map[string]bool, len(r))
	for i, rule := range r {
		name := strings.TrimSpace(rule.Category)
		if name == "" {
			return fmt.Errorf("%w: rule %d has no category", ErrInvalidRules, i+1)
		}
		if seen[name] {
			return fmt.Errorf("%w: category %q listed twice", ErrInvalidRules, name)
		}
		seen[name] = true
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("%w: category %q has no keywords", ErrInvalidRules, name)
		}
		for _, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: category %q has a blank keyword", ErrInvalidRules, name)
			}
		}
	}
	return nil
}

// Match returns the category of the first keyword found in description,
// compared with Unicode case folding.
func (r Rules) Match(description string) (string, bool) {
	text := storage.Fold(description)
	for _, rule := range r {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, storage.Fold(kw)) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
