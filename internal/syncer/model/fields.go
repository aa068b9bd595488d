package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Fields holds Freshservice custom_fields / type_fields with every value
// flattened to a string. Type field names carry a numeric suffix
// (os_52000123), so lookups go through Lookup rather than direct indexing.
type Fields map[string]string

func (f *Fields) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		out[k] = flatten(v)
	}
	*f = out
	return nil
}

func flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Lookup returns the value of the first prefix that matches a key, either
// exactly or as <prefix>_<digits>. When several suffixed keys match one
// prefix the lexically smallest key wins.
func (f Fields) Lookup(prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if v, ok := f[p]; ok {
			return v, true
		}
		var matches []string
		for k := range f {
			if hasNumericSuffix(k, p) {
				matches = append(matches, k)
			}
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return f[matches[0]], true
		}
	}
	return "", false
}

// String is Lookup with the value trimmed and misses returned as "".
func (f Fields) String(prefixes ...string) string {
	v, _ := f.Lookup(prefixes...)
	return strings.TrimSpace(v)
}

// Bool reports whether the looked-up value is truthy.
func (f Fields) Bool(prefixes ...string) bool {
	return Truthy(f.String(prefixes...))
}

// Truthy accepts the spellings Freshservice and its users put in checkbox
// and dropdown fields.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "ja", "y", "j", "x", "on":
		return true
	}
	return false
}

func hasNumericSuffix(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix+"_") {
		return false
	}
	rest := key[len(prefix)+1:]
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
