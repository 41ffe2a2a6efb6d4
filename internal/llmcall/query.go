package llmcall

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DefaultLimit caps a listing when the query names no limit.
const DefaultLimit = 100

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	Filename  string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// ParseQuery reads a filter from /llmcalls query parameters. A missing or
// non-positive limit becomes DefaultLimit.
func ParseQuery(q url.Values) (QueryFilter, error) {
	f := QueryFilter{
		Filename:  q.Get("filename"),
		PromptKey: q.Get("prompt_key"),
		Provider:  q.Get("provider"),
		Model:     q.Get("model"),
		Limit:     DefaultLimit,
	}

	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid success filter: %q must be true or false", v)
		}
		f.Success = &b
	}
	ints := []struct {
		key string
		dst *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}}
	for _, p := range ints {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("invalid %s: %q must be an integer", p.key, v)
			}
			*p.dst = n
		}
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	times := []struct {
		key string
		dst **time.Time
	}{{"after", &f.After}, {"before", &f.Before}}
	for _, p := range times {
		if v := q.Get(p.key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, fmt.Errorf("invalid %s time: %q must be RFC3339 (e.g. 2024-01-15T00:00:00Z)", p.key, v)
			}
			*p.dst = &t
		}
	}
	return f, nil
}

// Values encodes the filter as query parameters, omitting zero fields.
func (f QueryFilter) Values() url.Values {
	q := url.Values{}
	for key, v := range map[string]string{
		"filename":   f.Filename,
		"prompt_key": f.PromptKey,
		"provider":   f.Provider,
		"model":      f.Model,
	} {
		if v != "" {
			q.Set(key, v)
		}
	}
	if f.Success != nil {
		q.Set("success", strconv.FormatBool(*f.Success))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.After != nil {
		q.Set("after", f.After.Format(time.RFC3339))
	}
	if f.Before != nil {
		q.Set("before", f.Before.Format(time.RFC3339))
	}
	return q
}

func (f QueryFilter) match(c Call) bool {
	if f.Filename != "" && c.Filename != f.Filename {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}

// Get retrieves a single call by ID. Returns nil if it is not held.
func (r *Recorder) Get(id string) *Call {
	for _, c := range r.snapshot() {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

// List returns calls matching the filter, newest first.
func (r *Recorder) List(filter QueryFilter) []Call {
	calls := make([]Call, 0)
	skipped := 0
	for _, c := range r.snapshot() {
		if !filter.match(c) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		calls = append(calls, c)
		if filter.Limit > 0 && len(calls) >= filter.Limit {
			break
		}
	}
	return calls
}

// CountByPromptKey returns held call counts grouped by prompt key.
func (r *Recorder) CountByPromptKey() map[string]int {
	counts := make(map[string]int)
	for _, c := range r.snapshot() {
		counts[c.PromptKey]++
	}
	return counts
}
