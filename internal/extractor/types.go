package extractor

import (
	"strconv"
	"strings"
)

// Record is a parsed candidate complaint. The generator's output shape is not
// guaranteed, so it stays a loose map and callers read it through the accessors.
type Record map[string]any

// String returns the value at path as a string, or "" when the path is missing
// or lands on something other than a string or number.
func (r Record) String(path ...string) string {
	v, ok := r.lookup(path)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Object returns the nested object at path, or nil.
func (r Record) Object(path ...string) Record {
	v, ok := r.lookup(path)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return Record(m)
	}
	return nil
}

func (r Record) ComplaintType() string { return r.String("complaint_type") }
func (r Record) ComplaintSubtype() string { return r.String("complaint_subtype") }
func (r Record) Description() string { return r.String("description") }
func (r Record) Location() Record { return r.Object("complaint_location") }
func (r Record) Complainant() Record { return r.Object("complainant") }

// ComplainantName joins the complainant's first and last names. Both must be
// present, otherwise it returns "".
func (r Record) ComplainantName() string {
	first := r.String("complainant", "first_name")
	last := r.String("complainant", "last_name")
	if first == "" || last == "" {
		return ""
	}
	return first + " " + last
}

func (r Record) ComplainantEmail() string { return r.String("complainant", "email") }

// Missing lists the required fields that are absent or empty.
func (r Record) Missing() []string {
	var missing []string
	for _, p := range requiredFields {
		if r.String(p...) == "" {
			missing = append(missing, strings.Join(p, "."))
		}
	}
	return missing
}

var requiredFields = [][]string{
	{"complaint_type"},
	{"description"},
	{"complaint_location", "house_no"},
	{"complaint_location", "area_main"},
	{"complaint_location", "zone_or_ward_no"},
	{"complaint_location", "pincode"},
	{"complainant", "first_name"},
	{"complainant", "last_name"},
	{"complainant", "mobile"},
}

func (r Record) lookup(path []string) (any, bool) {
	if len(path) == 0 || r == nil {
		return nil, false
	}
	var cur any = map[string]any(r)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}
