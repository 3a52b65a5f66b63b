package config

import (
	"sort"
	"strings"
)

// defaultRecruitment holds total recruits per service branch over the
// 2006-2014 military series.
var defaultRecruitment = map[string]int64{
	"Army":      4849638,
	"Navy":      3010086,
	"Marines":   1738625,
	"Air Force": 2987583,
}

// DefaultRecruitment returns a copy of the built-in recruitment figures.
func DefaultRecruitment() map[string]int64 {
	out := make(map[string]int64, len(defaultRecruitment))
	for k, v := range defaultRecruitment {
		out[k] = v
	}
	return out
}

// Recruitment merges the configured overrides onto the defaults.
// Override keys match existing services case-insensitively, so "army"
// replaces "Army". An override of zero removes the service from normalization.
func Recruitment(cfg Config) map[string]int64 {
	out := DefaultRecruitment()
	keys := make([]string, 0, len(cfg.Military.Recruitment))
	for k := range cfg.Military.Recruitment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, raw := range keys {
		v := cfg.Military.Recruitment[raw]
		k := canonicalService(out, strings.TrimSpace(raw))
		if v == 0 {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// canonicalService returns the key in m that equals name ignoring case, or
// name itself when there is none.
func canonicalService(m map[string]int64, name string) string {
	if _, ok := m[name]; ok {
		return name
	}
	for k := range m {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}
