package models

// Sector is the top level of the organisational hierarchy.
type Sector struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Areas []Area `gorm:"foreignKey:SectorID;constraint:OnDelete:CASCADE" json:"areas,omitempty"`
	Users []User `gorm:"foreignKey:SectorID" json:"users,omitempty"`
}
