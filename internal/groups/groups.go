// Package groups classifies free-text category labels into coarse groups via
// ordered keyword matching. The group order is a user-visible contract: some
// keywords (e.g. "crm") appear in more than one group, and the first group in
// the configured order wins.
package groups

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fallback is the group assigned to categories no keyword matches.
const Fallback = "Other"

// Group maps a name to an ordered list of keyword substrings.
type Group struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Classifier assigns categories to groups. It is immutable after construction
// so alternate group definitions can be supplied per test or per process
// without cross-contamination.
type Classifier struct {
	groups []Group
}

// NewClassifier builds a classifier over a copy of the given ordered groups.
// Keywords are lowercased once up front; matching is case-insensitive
// substring containment.
func NewClassifier(gs []Group) *Classifier {
	cp := make([]Group, len(gs))
	for i, g := range gs {
		kws := make([]string, len(g.Keywords))
		for j, kw := range g.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		cp[i] = Group{Name: g.Name, Keywords: kws}
	}
	return &Classifier{groups: cp}
}

// Classify returns the first group whose keyword list matches the category,
// or Fallback when none does. Deterministic and total.
func (c *Classifier) Classify(category string) string {
	lower := strings.ToLower(strings.TrimSpace(category))
	if lower == "" {
		return Fallback
	}
	for _, g := range c.groups {
		for _, kw := range g.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return g.Name
			}
		}
	}
	return Fallback
}

// Names returns the configured group names in match order, without Fallback.
func (c *Classifier) Names() []string {
	names := make([]string, len(c.groups))
	for i, g := range c.groups {
		names[i] = g.Name
	}
	return names
}

// Load reads an ordered group list from a YAML file. A YAML sequence is used
// rather than a mapping precisely to preserve match order.
func Load(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groups file: %w", err)
	}
	var gs []Group
	if err := yaml.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("parse groups file: %w", err)
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("groups file %s defines no groups", path)
	}
	for i, g := range gs {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("group at index %d has no name", i)
		}
	}
	return gs, nil
}
