// Package registry holds zone-set and taxonomy configuration keyed by
// document type. A Registry is an explicit object constructed once at
// process start and passed to classifier calls; there is no package-level
// singleton.
package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ndrozdov/anchora/internal/model"
)

// Config is the on-disk registry shape
type Config struct {
	ZoneSets map[model.DocType][]model.ZoneKey           `yaml:"zone_sets"`
	Taxonomy map[model.DocType][]TaxonomyNode            `yaml:"taxonomy,omitempty"`
	Aliases  map[model.DocType]map[string]model.ZoneKey  `yaml:"aliases,omitempty"`
	Related  map[model.DocType][]RelatedPair             `yaml:"related,omitempty"`
}

// TaxonomyNode places one section in the per-doc-type hierarchy
type TaxonomyNode struct {
	Section model.ZoneKey `yaml:"section"`
	Parent  model.ZoneKey `yaml:"parent,omitempty"`
	Title   string        `yaml:"title,omitempty"`
}

// RelatedPair marks two sections as related/conflict-prone. Pairs are
// undirected and stored with A < B so each unordered pair appears once.
type RelatedPair struct {
	A model.ZoneKey `yaml:"a"`
	B model.ZoneKey `yaml:"b"`
}

// Registry answers zone-set, alias and related-graph queries
type Registry struct {
	zoneSets map[model.DocType]map[model.ZoneKey]bool
	parents  map[model.DocType]map[model.ZoneKey]model.ZoneKey
	titles   map[model.DocType]map[model.ZoneKey]string
	aliases  map[model.DocType]map[string]model.ZoneKey
	related  map[model.DocType]map[model.ZoneKey][]model.ZoneKey
}

// New builds a Registry from a Config, validating it. Malformed
// configuration (unknown zone keys, aliases to sections outside the zone
// set, duplicate related pairs) fails here, at load time.
func New(cfg *Config) (*Registry, error) {
	if cfg == nil || len(cfg.ZoneSets) == 0 {
		return nil, fmt.Errorf("registry config: no zone sets defined")
	}

	r := &Registry{
		zoneSets: make(map[model.DocType]map[model.ZoneKey]bool),
		parents:  make(map[model.DocType]map[model.ZoneKey]model.ZoneKey),
		titles:   make(map[model.DocType]map[model.ZoneKey]string),
		aliases:  make(map[model.DocType]map[string]model.ZoneKey),
		related:  make(map[model.DocType]map[model.ZoneKey][]model.ZoneKey),
	}

	for dt, zones := range cfg.ZoneSets {
		set := make(map[model.ZoneKey]bool, len(zones))
		for _, z := range zones {
			if !model.IsCanonicalZone(z) {
				return nil, fmt.Errorf("registry config: doc type %q: %q is not a canonical zone", dt, z)
			}
			set[z] = true
		}
		r.zoneSets[dt] = set
	}

	for dt, nodes := range cfg.Taxonomy {
		parents := make(map[model.ZoneKey]model.ZoneKey)
		titles := make(map[model.ZoneKey]string)
		for _, n := range nodes {
			if _, dup := parents[n.Section]; dup {
				return nil, fmt.Errorf("registry config: doc type %q: duplicate taxonomy node %q", dt, n.Section)
			}
			if !r.allows(dt, n.Section) {
				return nil, fmt.Errorf("registry config: doc type %q: taxonomy node %q outside zone set", dt, n.Section)
			}
			if n.Parent != "" && !r.allows(dt, n.Parent) {
				return nil, fmt.Errorf("registry config: doc type %q: parent %q of %q outside zone set", dt, n.Parent, n.Section)
			}
			parents[n.Section] = n.Parent
			if n.Title != "" {
				titles[n.Section] = n.Title
			}
		}
		r.parents[dt] = parents
		r.titles[dt] = titles
	}

	for dt, m := range cfg.Aliases {
		am := make(map[string]model.ZoneKey, len(m))
		for alias, target := range m {
			if !r.allows(dt, target) {
				return nil, fmt.Errorf("registry config: doc type %q: alias %q targets %q outside zone set", dt, alias, target)
			}
			am[alias] = target
		}
		r.aliases[dt] = am
	}

	for dt, pairs := range cfg.Related {
		rm := make(map[model.ZoneKey][]model.ZoneKey)
		seen := make(map[RelatedPair]bool)
		for _, p := range pairs {
			a, b := p.A, p.B
			if a == b {
				return nil, fmt.Errorf("registry config: doc type %q: self-related section %q", dt, a)
			}
			if a > b {
				a, b = b, a
			}
			key := RelatedPair{A: a, B: b}
			if seen[key] {
				return nil, fmt.Errorf("registry config: doc type %q: duplicate related pair %s/%s", dt, a, b)
			}
			seen[key] = true
			if !r.allows(dt, a) || !r.allows(dt, b) {
				return nil, fmt.Errorf("registry config: doc type %q: related pair %s/%s outside zone set", dt, a, b)
			}
			rm[a] = append(rm[a], b)
			rm[b] = append(rm[b], a)
		}
		for k := range rm {
			sort.Slice(rm[k], func(i, j int) bool { return rm[k][i] < rm[k][j] })
		}
		r.related[dt] = rm
	}

	return r, nil
}

// Load reads a registry config from a YAML file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return New(&cfg)
}

func (r *Registry) allows(dt model.DocType, z model.ZoneKey) bool {
	return r.zoneSets[dt][z]
}

// ZoneSet returns the sorted allow-list of zones for a document type.
// Unknown doc types yield an empty set.
func (r *Registry) ZoneSet(dt model.DocType) []model.ZoneKey {
	set := r.zoneSets[dt]
	out := make([]model.ZoneKey, 0, len(set))
	for z := range set {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllowsZone reports whether a zone is in the doc type's allow-list
func (r *Registry) AllowsZone(dt model.DocType, z model.ZoneKey) bool {
	return r.allows(dt, z)
}

// Canonical resolves a raw section key through the doc type's alias map.
// The second return is false when the key is neither canonical-and-allowed
// nor a known alias.
func (r *Registry) Canonical(dt model.DocType, key string) (model.ZoneKey, bool) {
	if target, ok := r.aliases[dt][key]; ok {
		return target, true
	}
	z := model.ZoneKey(key)
	if r.allows(dt, z) {
		return z, true
	}
	return model.ZoneUnknown, false
}

// Parent returns the taxonomy parent of a section ("" at the root)
func (r *Registry) Parent(dt model.DocType, z model.ZoneKey) model.ZoneKey {
	return r.parents[dt][z]
}

// Title returns the display title for a section, if configured
func (r *Registry) Title(dt model.DocType, z model.ZoneKey) string {
	return r.titles[dt][z]
}

// Related returns the sections related to z for the doc type, sorted
func (r *Registry) Related(dt model.DocType, z model.ZoneKey) []model.ZoneKey {
	return r.related[dt][z]
}

// IsRelated reports whether a and b are marked related for the doc type
func (r *Registry) IsRelated(dt model.DocType, a, b model.ZoneKey) bool {
	for _, z := range r.related[dt][a] {
		if z == b {
			return true
		}
	}
	return false
}
