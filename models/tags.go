// ABOUTME: Free-text contact tags and tag suggestions
// ABOUTME: TagSet decodes arrays or comma-separated strings into a de-duplicated set
package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagSet is a contact's set of labels. It always marshals as a JSON array.
type TagSet []string

func (t TagSet) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *TagSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTags(s)
	return nil
}

// Has reports whether the set contains tag, ignoring case.
func (t TagSet) Has(tag string) bool {
	for _, v := range t {
		if strings.EqualFold(v, tag) {
			return true
		}
	}
	return false
}

// HasAll reports whether every tag in want is present.
func (t TagSet) HasAll(want []string) bool {
	for _, w := range want {
		if !t.Has(w) {
			return false
		}
	}
	return true
}

// String joins the tags with ", ".
func (t TagSet) String() string {
	return strings.Join(t, ", ")
}

// ParseTags splits comma-separated input into a normalized set.
func ParseTags(s string) TagSet {
	if strings.TrimSpace(s) == "" {
		return TagSet{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling seen.
func NormalizeTags(tags []string) TagSet {
	out := make(TagSet, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

// SuggestTags returns known tags starting with prefix that are not already in
// current, sorted case-insensitively and capped at max (0 means no cap).
func SuggestTags(known []string, current TagSet, prefix string, max int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, tag := range NormalizeTags(known) {
		if current.Has(tag) {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(tag), prefix) {
			continue
		}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
