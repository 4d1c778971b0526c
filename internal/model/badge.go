package model

// Badge is a catalog entry a user may hold. Campaigns use badges for
// targeting.
type Badge struct {
	ID          uint64 // badges.id
	Name        string // badges.name
	Icon        string // badges.icon
	Description string // badges.description
}
