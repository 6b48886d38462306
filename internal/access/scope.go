// Package access implements the row-level security boundary between portal
// users and the analytical warehouse: scope resolution, predicate building,
// and the query gateway every dashboard query must pass through.
package access

import (
	"encoding/json"
	"fmt"
)

// Wildcard marks a dimension as unrestricted when present in its value set.
const Wildcard = "*"

// Scope constrains which warehouse rows a dashboard grant exposes. All
// fields are optional and combine with logical AND. The zero value is the
// empty scope, which matches no rows at all: a grant without restrictions is
// fail-closed, not wide open.
type Scope struct {
	Regions   []string `json:"regions,omitempty"`
	Branches  []string `json:"sucursales,omitempty"`
	MinAmount *float64 `json:"minAmount,omitempty"`
	MaxAmount *float64 `json:"maxAmount,omitempty"`
	DateFrom  *string  `json:"dateFrom,omitempty"`
	DateTo    *string  `json:"dateTo,omitempty"`
}

// Unrestricted returns the scope applied to administrators: every dimension
// wildcarded, so no filter predicates are generated.
func Unrestricted() *Scope {
	return &Scope{
		Regions:  []string{Wildcard},
		Branches: []string{Wildcard},
	}
}

// ParseScope decodes the persisted JSON form of a scope descriptor.
func ParseScope(data []byte) (*Scope, error) {
	var scope Scope
	if err := json.Unmarshal(data, &scope); err != nil {
		return nil, fmt.Errorf("access: parse scope: %w", err)
	}
	return &scope, nil
}

// Empty reports whether no dimension is set and none is wildcarded. An empty
// scope matches zero rows downstream.
func (s *Scope) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Regions) == 0 &&
		len(s.Branches) == 0 &&
		s.MinAmount == nil &&
		s.MaxAmount == nil &&
		s.DateFrom == nil &&
		s.DateTo == nil
}

// RestrictsRegions reports whether the region dimension carries an active
// restriction (non-empty and not wildcarded).
func (s *Scope) RestrictsRegions() bool {
	return restrictsSet(s.Regions)
}

// RestrictsBranches reports whether the branch dimension carries an active
// restriction.
func (s *Scope) RestrictsBranches() bool {
	return restrictsSet(s.Branches)
}

func restrictsSet(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v == Wildcard {
			return false
		}
	}
	return true
}
