package models

// Dashboard is a registered analytical view. The slug is the stable external
// key used by API routes and by the base-query registry; the warehouse query
// itself is developer-authored code, never stored here.
type Dashboard struct {
	BaseModel

	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	AreaID      *string `gorm:"type:uuid;index" json:"area_id"`
	Area        *Area   `json:"area,omitempty"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`

	Access []DashboardAccess `gorm:"foreignKey:DashboardID;constraint:OnDelete:CASCADE" json:"access,omitempty"`
}
