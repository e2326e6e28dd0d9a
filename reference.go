package recordsync

import (
	"regexp"
	"strings"
)

// Reference identifies one catalog item to resolve, e.g. "POSS-012C".
type Reference string

// referencePattern accepts alphanumerics with single interior hyphens or dots.
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*$`)

// maxReferenceLength bounds references so they remain usable as folder names.
const maxReferenceLength = 64

// ValidateReference returns EINVALID if ref is not a well-formed reference.
func ValidateReference(ref Reference) error {
	if ref == "" {
		return Errorf(EINVALID, "reference required")
	}
	if len(ref) > maxReferenceLength {
		return Errorf(EINVALID, "reference %q longer than %d characters", ref, maxReferenceLength)
	}
	if !referencePattern.MatchString(string(ref)) {
		return Errorf(EINVALID, "reference %q must be alphanumeric, optionally separated by '-' or '.'", ref)
	}
	return nil
}

// CommercialLine holds the user-supplied commercial fields for one reference.
type CommercialLine struct {
	Reference Reference `yaml:"reference" json:"reference"`
	Price     float64   `yaml:"price" json:"price"`
	Weight    float64   `yaml:"weight" json:"weight"`
	Quantity  int       `yaml:"quantity" json:"quantity"`
	Category  string    `yaml:"category" json:"category"`
}

// Validate returns an error if the line contains invalid fields.
func (l *CommercialLine) Validate() error {
	if err := ValidateReference(l.Reference); err != nil {
		return err
	}
	if l.Price < 0 {
		return Errorf(EINVALID, "%s: price must not be negative", l.Reference)
	}
	if l.Weight < 0 {
		return Errorf(EINVALID, "%s: weight must not be negative", l.Reference)
	}
	if l.Quantity < 0 {
		return Errorf(EINVALID, "%s: quantity must not be negative", l.Reference)
	}
	if strings.TrimSpace(l.Category) == "" {
		return Errorf(EINVALID, "%s: category required", l.Reference)
	}
	return nil
}

// Lines is a read-only lookup of commercial lines keyed by reference.
type Lines map[Reference]CommercialLine

// NewLines indexes lines by reference. Later duplicates win.
func NewLines(lines []CommercialLine) Lines {
	m := make(Lines, len(lines))
	for _, l := range lines {
		m[l.Reference] = l
	}
	return m
}

// References returns the references of lines in input order.
func References(lines []CommercialLine) []Reference {
	refs := make([]Reference, 0, len(lines))
	for _, l := range lines {
		refs = append(refs, l.Reference)
	}
	return refs
}
