// ABOUTME: One-time normalization of backend JSON into canonical DTOs
// ABOUTME: Accepts snake_case or camelCase keys, flexible dates and numeric strings
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses the date and timestamp layouts the backend emits.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CamelKey converts a snake_case key to camelCase. Keys without underscores
// are returned unchanged.
func CamelKey(k string) string {
	if !strings.Contains(k, "_") {
		return k
	}
	parts := strings.Split(k, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func isTimeKey(k string) bool {
	return strings.HasSuffix(k, "At") || strings.HasSuffix(k, "Date")
}

// canonicalize rewrites a JSON object so that every key is camelCase, time
// values parse as RFC 3339 and the named numeric keys hold JSON numbers.
// A camelCase key wins over its snake_case twin.
func canonicalize(data []byte, numeric ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		ck := CamelKey(k)
		if _, seen := out[ck]; seen && ck != k {
			continue
		}
		out[ck] = v
	}

	for k, v := range out {
		if isTimeKey(k) {
			out[k] = normalizeTime(v)
		}
	}
	for _, k := range numeric {
		if v, ok := out[k]; ok {
			out[k] = normalizeNumber(v)
		}
	}
	return out, nil
}

func normalizeTime(v json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return v
	}
	if s == "" {
		return json.RawMessage("null")
	}
	t, ok := ParseTime(s)
	if !ok {
		return json.RawMessage("null")
	}
	b, _ := json.Marshal(t)
	return b
}

func normalizeNumber(v json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return json.RawMessage("0")
		}
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return json.RawMessage("0")
	}
	return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
}

func decodeCanonical(data []byte, v any, numeric ...string) (map[string]json.RawMessage, error) {
	fields, err := canonicalize(data, numeric...)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return fields, json.Unmarshal(b, v)
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := fields[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	type alias Contact
	var a alias
	fields, err := decodeCanonical(data, &a)
	if err != nil {
		return err
	}
	*c = Contact(a)

	if c.Name == "" {
		c.Name = strings.TrimSpace(stringField(fields, "firstName") + " " + stringField(fields, "lastName"))
	}
	if c.Company == "" {
		c.Company = stringField(fields, "company")
	}
	if status, ok := ParseContactStatus(string(c.Status)); ok {
		c.Status = status
	} else {
		c.Status = DefaultContactStatus
	}
	return nil
}

func (c *Company) UnmarshalJSON(data []byte) error {
	type alias Company
	var a alias
	if _, err := decodeCanonical(data, &a, "contactCount", "dealCount"); err != nil {
		return err
	}
	*c = Company(a)
	return nil
}

func (d *Deal) UnmarshalJSON(data []byte) error {
	type alias Deal
	var a alias
	fields, err := decodeCanonical(data, &a, "value", "probability")
	if err != nil {
		return err
	}
	*d = Deal(a)
	if d.StageName == "" {
		d.StageName = stringField(fields, "stage")
	}
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	return nil
}

func (s *DealStage) UnmarshalJSON(data []byte) error {
	type alias DealStage
	var a alias
	fields, err := decodeCanonical(data, &a, "orderIndex", "order")
	if err != nil {
		return err
	}
	*s = DealStage(a)
	if s.OrderIndex == 0 {
		if v, ok := fields["order"]; ok {
			_ = json.Unmarshal(v, &s.OrderIndex)
		}
	}
	return nil
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type alias Activity
	var al alias
	if _, err := decodeCanonical(data, &al); err != nil {
		return err
	}
	*a = Activity(al)
	return nil
}

func (n *Note) UnmarshalJSON(data []byte) error {
	type alias Note
	var a alias
	fields, err := decodeCanonical(data, &a)
	if err != nil {
		return err
	}
	*n = Note(a)
	if n.AuthorName == "" {
		n.AuthorName = stringField(fields, "author")
	}
	return nil
}

func (s *Share) UnmarshalJSON(data []byte) error {
	type alias Share
	var a alias
	fields, err := decodeCanonical(data, &a)
	if err != nil {
		return err
	}
	*s = Share(a)
	if s.SharedWithUserID == "" {
		s.SharedWithUserID = stringField(fields, "sharedWith")
	}
	return nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var a alias
	if _, err := decodeCanonical(data, &a); err != nil {
		return err
	}
	*u = User(a)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (p *Pagination) UnmarshalJSON(data []byte) error {
	type alias Pagination
	var a alias
	if _, err := decodeCanonical(data, &a, "page", "limit", "total", "totalPages"); err != nil {
		return err
	}
	*p = Pagination(a)
	p.Normalize()
	return nil
}
