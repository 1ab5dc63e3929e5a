// Package models defines the registry's domain types: name records, price
// quotes, and the typed failure modes of the purchase protocol.
package models

import (
	"fmt"
	"strings"
	"time"

	id "namedeed/pkg/domain"
)

// NameRecord is one registered name. Child names are stored under their
// fully-qualified dotted form ("shop.com"), not nested. Records are
// created exactly once and never reassigned.
type NameRecord struct {
	Name      string
	Owner     id.Account
	CreatedAt time.Time
}

// FullName composes a child's fully-qualified key.
func FullName(label, parent string) string {
	return label + "." + parent
}

// ValidateName checks a root name. Names are case-sensitive and stored
// verbatim; the only structural rules are non-emptiness and no empty
// dot-separated segments, so a root purchase cannot squat a key no parent
// chain could ever produce.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("name %q contains whitespace", name)
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return fmt.Errorf("name %q has an empty segment", name)
		}
	}
	return nil
}

// ValidateLabel checks a child label. Labels must be a single segment:
// the dot is the hierarchy separator.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("label is required")
	}
	if strings.Contains(label, ".") {
		return fmt.Errorf("label %q must not contain dots", label)
	}
	if strings.ContainsAny(label, " \t\n") {
		return fmt.Errorf("label %q contains whitespace", label)
	}
	return nil
}
