package contractors

import "strings"

// NormalizeCounty folds case and drops a trailing " County", so "Harris County" and "harris" compare equal.
func NormalizeCounty(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " county")
	return strings.TrimSpace(s)
}

// ServesCounty reports whether county is in the list.
func ServesCounty(list []string, county string) bool {
	want := NormalizeCounty(county)
	if want == "" {
		return false
	}
	for _, c := range list {
		if NormalizeCounty(c) == want {
			return true
		}
	}
	return false
}

// ServesJobType filters only when both the lead and the list name a job type.
func ServesJobType(list []string, jobType string) bool {
	jobType = strings.ToLower(strings.TrimSpace(jobType))
	if jobType == "" || len(list) == 0 {
		return true
	}
	for _, j := range list {
		if strings.ToLower(strings.TrimSpace(j)) == jobType {
			return true
		}
	}
	return false
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
