// Package address turns the free-text client addresses of older records into
// structured street/postal code/city fields.
package address

import (
	"regexp"
	"strings"
)

var (
	houseNumberPattern = regexp.MustCompile(`^(.+?)\s+(\d+[a-zA-Z]?)$`)
	postalCityPattern  = regexp.MustCompile(`^(\d{4})\s+(.+)$`)
)

// Structured is a postal address split into fields. An empty string means the
// field is unknown.
type Structured struct {
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
}

// IsEmpty reports whether no field is set.
func (s Structured) IsEmpty() bool {
	return s == Structured{}
}

// StreetLine joins street and house number.
func (s Structured) StreetLine() string {
	return strings.TrimSpace(s.Street + " " + s.HouseNumber)
}

// Lines renders the address the way it is printed on documents.
func (s Structured) Lines() []string {
	var lines []string
	if l := s.StreetLine(); l != "" {
		lines = append(lines, l)
	}
	if l := strings.TrimSpace(s.PostalCode + " " + s.City); l != "" {
		lines = append(lines, l)
	}
	return lines
}

func (Structured) isSource() {}

// Resolve returns the address itself.
func (s Structured) Resolve() Structured { return s }

// Raw is legacy free-text address input, one component per line.
type Raw string

func (Raw) isSource() {}

// Resolve parses the raw text.
func (r Raw) Resolve() Structured { return Parse(string(r)) }

// Source is an address as supplied at the boundary: either Raw text or an
// already Structured record.
type Source interface {
	isSource()
	Resolve() Structured
}

// Parse splits free text into fields on a best-effort basis. The first line
// yields street and house number, the last line (when there are at least two)
// yields postal code and city. Parse never fails; fields that cannot be
// recognized stay empty.
func Parse(text string) Structured {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return Structured{}
	}

	var out Structured
	if m := houseNumberPattern.FindStringSubmatch(lines[0]); m != nil {
		out.Street = strings.TrimSpace(m[1])
		out.HouseNumber = m[2]
	} else {
		out.Street = lines[0]
	}

	if len(lines) >= 2 {
		if m := postalCityPattern.FindStringSubmatch(lines[len(lines)-1]); m != nil {
			out.PostalCode = m[1]
			out.City = strings.TrimSpace(m[2])
		}
	}
	return out
}
