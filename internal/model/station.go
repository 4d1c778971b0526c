package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Station is a charging location. OwnerID is nil for demo stations that no
// operator manages.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – operator that manages the station (nullable).
//  Name      – display name.
//  Price     – base price per energy unit, always positive.
//  Lat, Lng  – WGS84 coordinates.
//  Address   – optional street address.
//  CreatedAt – creation timestamp.
type Station struct {
	ID        uint64          // stations.id
	OwnerID   *uint64         // stations.owner_id (nullable)
	Name      string          // stations.name
	Price     decimal.Decimal // stations.price
	Lat       float64         // stations.lat
	Lng       float64         // stations.lng
	Address   *string         // stations.address (nullable)
	CreatedAt time.Time       // stations.created_at
}
