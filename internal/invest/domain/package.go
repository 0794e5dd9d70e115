package domain

import "fmt"

type PackageKind string

const (
	KindShortTerm PackageKind = "short-term"
	KindLongTerm  PackageKind = "long-term"
)

// Package is an immutable catalog entry. Defined at startup, never mutated.
type Package struct {
	ID                string      `yaml:"id"`
	Name              string      `yaml:"name"`
	Kind              PackageKind `yaml:"kind"`
	MinAmount         float64     `yaml:"min_amount"`
	MaxAmount         float64     `yaml:"max_amount"`
	AnnualRatePercent float64     `yaml:"annual_rate_percent"`
	TermMonths        int         `yaml:"term_months"`
	Description       string      `yaml:"description"`
}

func (p Package) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("package id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("package %s: name is required", p.ID)
	}
	if p.Kind != KindShortTerm && p.Kind != KindLongTerm {
		return fmt.Errorf("package %s: unknown kind %q", p.ID, p.Kind)
	}
	if p.MinAmount < 0 || p.MinAmount > p.MaxAmount {
		return fmt.Errorf("package %s: amount bounds [%v, %v] are invalid", p.ID, p.MinAmount, p.MaxAmount)
	}
	if p.AnnualRatePercent <= 0 {
		return fmt.Errorf("package %s: annual rate must be positive", p.ID)
	}
	if p.TermMonths <= 0 {
		return fmt.Errorf("package %s: term must be positive", p.ID)
	}
	return nil
}
