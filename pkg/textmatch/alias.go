package textmatch

import "sort"

// AliasTable is an immutable, symmetric synonym lookup keyed by normalized
// activity names. Build it once with NewAliasTable and share it freely.
type AliasTable struct {
	canonical map[string][]string
	reverse   map[string][]string
}

// NewAliasTable builds a table from canonical name -> synonyms. Keys and
// synonyms are normalized on the way in; empty entries are dropped.
func NewAliasTable(entries map[string][]string) *AliasTable {
	t := &AliasTable{
		canonical: make(map[string][]string, len(entries)),
		reverse:   make(map[string][]string),
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		canonical := Normalize(key)
		if canonical == "" {
			continue
		}
		for _, synonym := range entries[key] {
			normalized := Normalize(synonym)
			if normalized == "" || normalized == canonical {
				continue
			}
			t.canonical[canonical] = appendUnique(t.canonical[canonical], normalized)
			t.reverse[normalized] = appendUnique(t.reverse[normalized], canonical)
		}
	}
	return t
}

// Variants returns the union of the synonyms of name (when name is a
// canonical key) and every canonical key listing name as a synonym. name must
// already be normalized. The result is a fresh slice; it is empty when name
// takes part in no alias relationship.
func (t *AliasTable) Variants(name string) []string {
	if t == nil {
		return nil
	}
	var variants []string
	for _, v := range t.canonical[name] {
		variants = appendUnique(variants, v)
	}
	for _, v := range t.reverse[name] {
		variants = appendUnique(variants, v)
	}
	return variants
}

// IsAlias reports whether b is one of the variants of a, or a one of b.
func (t *AliasTable) IsAlias(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, v := range t.Variants(a) {
		if v == b {
			return true
		}
	}
	for _, v := range t.Variants(b) {
		if v == a {
			return true
		}
	}
	return false
}

// Len returns the number of canonical names in the table.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.canonical)
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// DefaultAliasTable returns the built-in synonym table for common
// construction cost-plan activities.
func DefaultAliasTable() *AliasTable {
	return NewAliasTable(map[string][]string{
		"cost planning":            {"cost planner", "quantity surveyor", "qs"},
		"architect":                {"architecture", "architectural", "design architect"},
		"structural engineer":      {"structural", "structural engineering"},
		"civil engineer":           {"civil", "civil engineering"},
		"mechanical engineer":      {"mechanical", "mechanical services", "hvac"},
		"electrical engineer":      {"electrical", "electrical services"},
		"hydraulic engineer":       {"hydraulic", "hydraulics", "hydraulic services"},
		"fire engineer":            {"fire engineering", "fire services", "fire protection"},
		"building surveyor":        {"certifier", "building certifier", "private certifier"},
		"town planner":             {"planning consultant", "town planning", "urban planner"},
		"landscape architect":      {"landscape", "landscaping"},
		"geotechnical engineer":    {"geotechnical", "geotech"},
		"acoustic consultant":      {"acoustic", "acoustics", "acoustic engineer"},
		"project manager":          {"project management", "pm"},
		"interior designer":        {"interior design", "interiors"},
		"access consultant":        {"accessibility", "access"},
		"esd consultant":           {"sustainability", "esd"},
		"traffic engineer":         {"traffic", "traffic consultant"},
		"surveyor":                 {"land surveyor", "site survey"},
		"head contractor":          {"main contractor", "builder", "principal contractor"},
		"demolition":               {"demolition contractor", "demo"},
		"authority fees":           {"council fees", "statutory fees"},
		"development application":  {"da fees", "da"},
		"construction contingency": {"contingency"},
		"design contingency":       {"design allowance"},
	})
}
