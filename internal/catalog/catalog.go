// Package catalog holds the investment package catalog: versioned
// configuration loaded once at startup and read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/okivest/investment-platform/internal/invest/domain"
	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var defaultPackages []byte

type Catalog struct {
	packages []domain.Package
	byID     map[string]domain.Package
	byName   map[string]domain.Package
}

type file struct {
	Packages []domain.Package `yaml:"packages"`
}

// Default builds the catalog from the embedded package definitions.
func Default() (*Catalog, error) {
	return Parse(defaultPackages)
}

// LoadFile builds the catalog from a yaml file on disk, so operators can
// change packages without redeploying.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Packages) == 0 {
		return nil, fmt.Errorf("catalog has no packages")
	}

	c := &Catalog{
		packages: f.Packages,
		byID:     make(map[string]domain.Package, len(f.Packages)),
		byName:   make(map[string]domain.Package, len(f.Packages)),
	}
	for _, p := range f.Packages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate package id %q", p.ID)
		}
		// Requests resolve packages by display name, so names must be
		// unambiguous too.
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate package name %q", p.Name)
		}
		c.byID[p.ID] = p
		c.byName[p.Name] = p
	}
	return c, nil
}

func (c *Catalog) Packages() []domain.Package {
	out := make([]domain.Package, len(c.packages))
	copy(out, c.packages)
	return out
}

func (c *Catalog) Lookup(id string) (domain.Package, error) {
	p, ok := c.byID[id]
	if !ok {
		return domain.Package{}, domain.ErrUnknownPackage
	}
	return p, nil
}

// LookupByName resolves a package by its display name, which is what the
// payment request carries on the wire.
func (c *Catalog) LookupByName(name string) (domain.Package, error) {
	p, ok := c.byName[name]
	if !ok {
		return domain.Package{}, domain.ErrUnknownPackage
	}
	return p, nil
}

// PresetAmounts derives the suggested amounts shown next to the amount
// field: min, 2x, 5x and 10x, capped at the package maximum, ascending and
// deduplicated.
func (c *Catalog) PresetAmounts(id string) ([]float64, error) {
	p, err := c.Lookup(id)
	if err != nil {
		return nil, err
	}

	candidates := []float64{
		p.MinAmount,
		math.Round(p.MinAmount * 2),
		math.Round(p.MinAmount * 5),
		math.Round(p.MinAmount * 10),
	}
	seen := make(map[float64]bool, len(candidates))
	presets := make([]float64, 0, len(candidates))
	for _, amount := range candidates {
		if amount < p.MinAmount || amount > p.MaxAmount || seen[amount] {
			continue
		}
		seen[amount] = true
		presets = append(presets, amount)
	}
	sort.Float64s(presets)
	return presets, nil
}
