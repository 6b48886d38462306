package access

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Warehouse column names the scope dimensions map onto. Dashboard base
// queries are expected to expose these columns (directly or via the view
// they select from).
const (
	columnRegion = "region"
	columnBranch = "sucursal"
	columnAmount = "monto"
	columnDate   = "fecha"
)

// matchNothing keeps the composed statement valid SQL while guaranteeing an
// empty result set for empty scopes.
const matchNothing = "1 = 0"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Filter is a composable WHERE fragment plus its bound argument values.
// Values are never interpolated into the clause text.
type Filter struct {
	Clause string
	Args   []any
}

// BuildFilter translates a resolved scope plus optional caller-supplied
// equality parameters into a parameterized filter. It is pure and
// deterministic: extra keys are emitted in sorted order.
//
// A nil or empty scope yields the match-nothing clause. A fully wildcarded
// scope with no extra parameters yields an empty clause and no arguments.
func BuildFilter(scope *Scope, extra map[string]any) (Filter, error) {
	var (
		conditions []string
		args       []any
	)

	if scope.Empty() {
		conditions = append(conditions, matchNothing)
	} else {
		if scope.RestrictsRegions() {
			conditions = append(conditions, inCondition(columnRegion, len(scope.Regions)))
			for _, region := range scope.Regions {
				args = append(args, region)
			}
		}

		if scope.RestrictsBranches() {
			conditions = append(conditions, inCondition(columnBranch, len(scope.Branches)))
			for _, branch := range scope.Branches {
				args = append(args, branch)
			}
		}

		if scope.MinAmount != nil {
			conditions = append(conditions, columnAmount+" >= ?")
			args = append(args, *scope.MinAmount)
		}

		if scope.MaxAmount != nil {
			conditions = append(conditions, columnAmount+" <= ?")
			args = append(args, *scope.MaxAmount)
		}

		if scope.DateFrom != nil {
			conditions = append(conditions, columnDate+" >= ?")
			args = append(args, *scope.DateFrom)
		}

		if scope.DateTo != nil {
			conditions = append(conditions, columnDate+" <= ?")
			args = append(args, *scope.DateTo)
		}
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !identifierPattern.MatchString(key) {
			return Filter{}, fmt.Errorf("access: invalid filter parameter name %q", key)
		}
		conditions = append(conditions, key+" = ?")
		args = append(args, extra[key])
	}

	if len(conditions) == 0 {
		return Filter{}, nil
	}

	return Filter{
		Clause: "WHERE " + strings.Join(conditions, " AND "),
		Args:   args,
	}, nil
}

func inCondition(column string, count int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", count), ",")
	return fmt.Sprintf("%s IN (%s)", column, placeholders)
}
