package models

// Area groups dashboards and users below a sector. Names are unique within
// their owning sector, not globally.
type Area struct {
	BaseModel

	Name        string `gorm:"not null;uniqueIndex:idx_areas_sector_name" json:"name"`
	Description string `json:"description"`
	SectorID    string `gorm:"type:uuid;not null;uniqueIndex:idx_areas_sector_name;index" json:"sector_id"`
	Sector      *Sector `json:"sector,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Dashboards []Dashboard `gorm:"foreignKey:AreaID" json:"dashboards,omitempty"`
	Users      []User      `gorm:"foreignKey:AreaID" json:"users,omitempty"`
}
