// Package profiles holds the allocation profile reference data. A Registry is
// built once at start-up and is read-only afterwards; lookups hand out copies
// so callers can never alter the shared templates.
package profiles

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iwvelando/budget-allocation/internal/allocation"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// ErrUnknownProfile is returned when a profile id or classification has no entry.
var ErrUnknownProfile = errors.New("unknown allocation profile")

type document struct {
	Classifications map[string]string    `yaml:"classifications"`
	Profiles        []allocation.Profile `yaml:"profiles"`
}

// Registry maps profile ids and building classifications to profiles.
type Registry struct {
	profiles        map[string]allocation.Profile
	classifications map[string]string
	ids             []string
}

// Default returns the registry built from the embedded profile asset.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultProfiles))
}

// LoadFile reads a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile registry: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Load decodes and validates a registry document. Unknown fields, duplicate
// profile ids and classifications pointing at missing profiles are errors.
func Load(r io.Reader) (*Registry, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("profile registry is empty")
		}
		return nil, fmt.Errorf("failed to parse profile registry: %w", err)
	}

	reg := &Registry{
		profiles:        make(map[string]allocation.Profile, len(doc.Profiles)),
		classifications: make(map[string]string, len(doc.Classifications)),
	}

	for i := range doc.Profiles {
		profile := doc.Profiles[i]
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("invalid profile at position %d: %w", i, err)
		}
		if _, dup := reg.profiles[profile.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", profile.ID)
		}
		reg.profiles[profile.ID] = profile
		reg.ids = append(reg.ids, profile.ID)
	}
	sort.Strings(reg.ids)

	for code, id := range doc.Classifications {
		if _, ok := reg.profiles[id]; !ok {
			return nil, fmt.Errorf("classification %q: %w %q", code, ErrUnknownProfile, id)
		}
		reg.classifications[normalizeCode(code)] = id
	}

	return reg, nil
}

// Lookup returns a copy of the profile with the given id.
func (r *Registry) Lookup(id string) (*allocation.Profile, bool) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, false
	}
	return cloneProfile(profile), true
}

// LookupByClassification consults the classification table and returns a
// copy of the mapped profile. Unmapped classifications return false; no
// default profile is substituted.
func (r *Registry) LookupByClassification(code string) (*allocation.Profile, bool) {
	id, ok := r.classifications[normalizeCode(code)]
	if !ok {
		return nil, false
	}
	return r.Lookup(id)
}

// Resolve picks a profile by id when one is given, otherwise by
// classification. A miss wraps ErrUnknownProfile.
func (r *Registry) Resolve(profileID, classification string) (*allocation.Profile, error) {
	if id := strings.TrimSpace(profileID); id != "" {
		if profile, ok := r.Lookup(id); ok {
			return profile, nil
		}
		return nil, fmt.Errorf("%w: id %q", ErrUnknownProfile, id)
	}
	if profile, ok := r.LookupByClassification(classification); ok {
		return profile, nil
	}
	return nil, fmt.Errorf("%w: classification %q", ErrUnknownProfile, classification)
}

// List returns copies of every profile ordered by id.
func (r *Registry) List() []allocation.Profile {
	out := make([]allocation.Profile, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, *cloneProfile(r.profiles[id]))
	}
	return out
}

// Classifications returns a copy of the classification -> profile id table.
func (r *Registry) Classifications() map[string]string {
	out := make(map[string]string, len(r.classifications))
	for code, id := range r.classifications {
		out[code] = id
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func cloneProfile(p allocation.Profile) *allocation.Profile {
	clone := p
	clone.Sections = make([]allocation.Section, len(p.Sections))
	for i, section := range p.Sections {
		clone.Sections[i] = allocation.Section{
			Kind:  section.Kind,
			Items: append([]allocation.TemplateItem(nil), section.Items...),
		}
	}
	return &clone
}
