// Package gcpm implements generated content for paged media: named strings
// set by string-set, counters and evaluation of content lists.
package gcpm

import (
	"fmt"
	"strings"
)

// Policy selects which assignment of a named string string() returns on a
// page.
type Policy int

const (
	// First is the first assignment on the page, or the value carried in
	// from previous pages.
	First Policy = iota
	// Start is the value in effect at the start of the page.
	Start
	// Last is the last assignment on the page, or the carried value.
	Last
	// FirstExcept is empty on pages which assign the string, the carried
	// value otherwise.
	FirstExcept
)

var policyNames = [...]string{
	First:       "first",
	Start:       "start",
	Last:        "last",
	FirstExcept: "first-except",
}

func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy reads a policy keyword. Authors write these in any case, so
// comparison ignores it. Empty string is the default First.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return First, nil
	}
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return Policy(p), nil
		}
	}
	return First, fmt.Errorf("unknown string() policy %q", s)
}

// NamedString is a single string-set assignment.
type NamedString struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Page  int    `yaml:"page"`
}

// Strings is the document ordered list of named string assignments. It is
// only appended to.
type Strings struct {
	list []NamedString
}

// Set appends an assignment. Pages must not decrease.
func (s *Strings) Set(name, value string, page int) {
	s.list = append(s.list, NamedString{Name: name, Value: value, Page: page})
}

// All returns every assignment in document order.
func (s *Strings) All() []NamedString {
	return s.list
}

// Named returns assignments of one name in document order.
func (s *Strings) Named(name string) []NamedString {
	var out []NamedString
	for _, ns := range s.list {
		if ns.Name == name {
			out = append(out, ns)
		}
	}
	return out
}

// Lookup returns value of string() for a page.
func (s *Strings) Lookup(name string, page int, policy Policy) string {
	var (
		carried    string // last assignment before the page
		hasCarried bool
		onPage     []string
	)
	for _, ns := range s.list {
		if ns.Name != name {
			continue
		}
		switch {
		case ns.Page < page:
			carried, hasCarried = ns.Value, true
		case ns.Page == page:
			onPage = append(onPage, ns.Value)
		}
	}

	switch policy {
	case Start:
		if hasCarried {
			return carried
		}
		if len(onPage) > 0 {
			return onPage[0]
		}
	case Last:
		if len(onPage) > 0 {
			return onPage[len(onPage)-1]
		}
		return carried
	case FirstExcept:
		if len(onPage) > 0 {
			return ""
		}
		return carried
	default:
		if len(onPage) > 0 {
			return onPage[0]
		}
		return carried
	}
	return ""
}
