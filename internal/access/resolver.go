package access

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/pkg/logger"
)

var (
	// ErrNoAccess indicates the caller holds no grant for the dashboard. It
	// is a terminal authorization outcome, decided before the warehouse is
	// ever contacted.
	ErrNoAccess = errors.New("access: no grant for dashboard")

	// ErrUnknownUser indicates the caller identity does not resolve to a
	// known principal.
	ErrUnknownUser = errors.New("access: unknown user")
)

// Resolver answers what, if anything, a caller may see for a dashboard.
type Resolver struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewResolver constructs a Resolver backed by the application store.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("access: resolver requires a database handle")
	}
	return &Resolver{db: db, log: logger.WithModule("access")}, nil
}

// Resolve determines the caller's scope for the dashboard identified by its
// slug. Outcomes are three-way:
//
//   - administrators get the unrestricted scope without a grant lookup;
//   - a missing grant returns ErrNoAccess;
//   - a grant without a parseable descriptor returns the empty scope, which
//     downstream matches zero rows.
//
// Store failures surface as wrapped errors distinct from the outcomes above.
func (r *Resolver) Resolve(ctx context.Context, userID, dashboardSlug string) (*Scope, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("access: load user: %w", err)
	}

	if user.IsAdmin() {
		// Explicit role bypass, not a default.
		return Unrestricted(), nil
	}

	var grant models.DashboardAccess
	err = r.db.WithContext(ctx).
		Joins("JOIN dashboards ON dashboards.id = dashboard_accesses.dashboard_id").
		Where("dashboard_accesses.user_id = ? AND dashboards.slug = ? AND dashboards.is_active = ?", userID, dashboardSlug, true).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoAccess
	}
	if err != nil {
		return nil, fmt.Errorf("access: load grant: %w", err)
	}

	if len(grant.Scope) == 0 {
		// Granted but no descriptor: fail closed, zero visible rows.
		return &Scope{}, nil
	}

	scope, parseErr := ParseScope(grant.Scope)
	if parseErr != nil {
		// A corrupt descriptor must not turn into a caller-facing failure;
		// degrade to the empty scope and leave a trace for operators.
		r.log.Warn("malformed scope descriptor, treating as empty",
			zap.String("user_id", userID),
			zap.String("dashboard", dashboardSlug),
			zap.Error(parseErr),
		)
		return &Scope{}, nil
	}

	return scope, nil
}
