// Package fields holds the catalog of policy fields the extractor looks for:
// their display names, descriptions and the synonyms banks use for them.
package fields

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/viper"
)

// Field describes one tracked policy field.
type Field struct {
	Key         string   `json:"key" mapstructure:"-"`
	DisplayName string   `json:"display_name" mapstructure:"display_name"`
	Description string   `json:"description" mapstructure:"description"`
	Synonyms    []string `json:"synonyms" mapstructure:"synonyms"`
}

// Catalog is an ordered set of fields.
type Catalog struct {
	fields []Field
	index  map[string]int
}

// New builds a catalog from fields, keeping their order.
func New(fields []Field) *Catalog {
	c := &Catalog{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(c.fields, fields)
	for i, f := range c.fields {
		c.index[f.Key] = i
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New([]Field{
		{
			Key:         "fees_and_charges",
			DisplayName: "Fees & Charges",
			Description: "All fees, charges, processing fees, administrative costs, penalties, etc.",
			Synonyms:    []string{"fees", "charges", "processing fee", "administrative costs", "penalties"},
		},
		{
			Key:         "prepayment",
			DisplayName: "Prepayment",
			Description: "Terms for prepayment, prepayment penalties, conditions, minimum amounts, etc.",
			Synonyms:    []string{"prepayment", "foreclosure", "pre-closure", "early closure", "part payment"},
		},
		{
			Key:         "ltv_bands",
			DisplayName: "LTV Bands",
			Description: "Loan to Value ratio bands, different LTV categories, associated rates or terms",
			Synonyms:    []string{"ltv", "loan to value", "ltv ratio", "ltv bands"},
		},
		{
			Key:         "eligibility",
			DisplayName: "Eligibility",
			Description: "Eligibility criteria for loans, income requirements, employment criteria, etc.",
			Synonyms:    []string{"eligibility", "eligible", "qualification", "criteria", "requirements"},
		},
		{
			Key:         "tenure",
			DisplayName: "Tenure",
			Description: "Loan tenure options, minimum and maximum tenure, repayment periods",
			Synonyms:    []string{"tenure", "term", "loan period", "repayment period", "duration"},
		},
		{
			Key:         "interest_reset",
			DisplayName: "Interest Reset",
			Description: "Interest rate reset frequency, floating rate terms, rate review periods",
			Synonyms:    []string{"interest reset", "rate review", "floating rate", "rate revision"},
		},
		{
			Key:         "documents_required",
			DisplayName: "Documents Required",
			Description: "Required documents for loan application, KYC documents, etc.",
			Synonyms:    []string{"documents", "documentation", "kyc", "papers", "required documents"},
		},
	})
}

// Fields returns a copy of the fields in order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Len returns the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Get returns the field with the given key.
func (c *Catalog) Get(key string) (Field, bool) {
	i, ok := c.index[key]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Keys returns the field keys in order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.fields))
	for i, f := range c.fields {
		keys[i] = f.Key
	}
	return keys
}

// DisplayNames maps keys to display names.
func (c *Catalog) DisplayNames() map[string]string {
	out := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		out[f.Key] = f.DisplayName
	}
	return out
}

// Descriptions maps keys to descriptions.
func (c *Catalog) Descriptions() map[string]string {
	out := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		out[f.Key] = f.Description
	}
	return out
}

// Match finds the field a free-text heading most likely refers to, e.g.
// "Pre-closure charges" -> prepayment. Labels are the key, display name and
// synonyms; the closest fuzzy match across all labels wins, ties going to
// the earlier field.
func (c *Catalog) Match(term string) (Field, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Field{}, false
	}

	best, bestDist := -1, 0
	for i, f := range c.fields {
		for _, label := range f.labels() {
			d := labelDistance(label, term)
			if d < 0 {
				continue
			}
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	if best < 0 {
		return Field{}, false
	}
	return c.fields[best], true
}

func (f Field) labels() []string {
	labels := make([]string, 0, len(f.Synonyms)+2)
	labels = append(labels, strings.ReplaceAll(f.Key, "_", " "), f.DisplayName)
	return append(labels, f.Synonyms...)
}

// labelDistance is the Levenshtein distance when either string fuzzily
// contains the other, or -1.
func labelDistance(label, term string) int {
	if label == "" {
		return -1
	}
	if d := fuzzy.RankMatchNormalizedFold(label, term); d >= 0 {
		return d
	}
	return fuzzy.RankMatchNormalizedFold(term, label)
}

// Load reads a JSON catalog of the form
//
//	{"<key>": {"display_name": "...", "description": "...", "synonyms": [...]}}
//
// The file replaces the defaults. Keys known to the default catalog keep
// their default order; other keys follow, sorted.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read field config %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Catalog, error) {
	var raw map[string]Field
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode field config: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("field config defines no fields")
	}

	order := make(map[string]int)
	for i, key := range Default().Keys() {
		order[key] = i
	}

	keys := make([]string, 0, len(raw))
	for key, f := range raw {
		if f.DisplayName == "" {
			return nil, fmt.Errorf("field %q has no display_name", key)
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iKnown := order[keys[i]]
		oj, jKnown := order[keys[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		f := raw[key]
		f.Key = key
		fields = append(fields, f)
	}
	return New(fields), nil
}

// LoadOrDefault loads path, falling back to the defaults with a warning when
// the file cannot be used. An empty path selects the defaults silently.
func LoadOrDefault(path string, logger *slog.Logger) *Catalog {
	if path == "" {
		return Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := Load(path)
	if err != nil {
		logger.Warn("could not load field config, using default fields", "path", path, "error", err)
		return Default()
	}
	logger.Info("loaded field config", "path", path, "fields", c.Len())
	return c
}
