package models

import "gorm.io/datatypes"

// DashboardAccess grants one user visibility into one dashboard. At most one
// record exists per (user, dashboard) pair.
//
// Scope holds the persisted JSON scope descriptor. A NULL scope on an
// existing grant means the user may open the dashboard but sees zero rows
// until an administrator defines a scope: access without a descriptor is
// fail-closed, which is distinct from having no grant at all.
type DashboardAccess struct {
	BaseModel

	UserID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_dashboard" json:"user_id"`
	User        *User      `json:"user,omitempty"`
	DashboardID string     `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_dashboard;index" json:"dashboard_id"`
	Dashboard   *Dashboard `json:"dashboard,omitempty"`

	Scope datatypes.JSON `gorm:"type:json" json:"access_scope"`
}
