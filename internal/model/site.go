package model

import (
	"time"

	"github.com/google/uuid"
)

// Site is one physical location (shop, market, depot). Master stock is
// scoped to a site; stalls belong to exactly one site.
type Site struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null;uniqueIndex"`
	Location  *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Site) TableName() string { return "sites" }

// Stall is one point of sale inside a site.
type Stall struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SiteID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	StallType string    `gorm:"not null;default:'retail'"` // retail | food
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Site *Site `gorm:"foreignKey:SiteID"`
}

func (Stall) TableName() string { return "stalls" }
