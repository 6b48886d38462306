package models

// User roles. Admins bypass dashboard grants entirely.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User describes portal users. Sector and area membership is organisational
// metadata; dashboard visibility is governed by DashboardAccess grants.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Name     string `gorm:"not null" json:"name"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:user;index" json:"role"`

	SectorID *string `gorm:"type:uuid;index" json:"sector_id"`
	Sector   *Sector `json:"sector,omitempty"`
	AreaID   *string `gorm:"type:uuid;index" json:"area_id"`
	Area     *Area   `json:"area,omitempty"`

	DashboardAccess []DashboardAccess `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"dashboard_access,omitempty"`
}

// IsAdmin reports whether the user holds the elevated role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
