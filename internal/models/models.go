package models

import "time"

type Section struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Slug           string    `db:"slug"`
	Template       string    `db:"template"`
	Capacity       int       `db:"capacity"`
	TargetType     string    `db:"target_type"`
	TargetValue    string    `db:"target_value"`
	Feed           []byte    `db:"feed"`
	Pins           []byte    `db:"pins"`
	Custom         []byte    `db:"custom"`
	Enabled        bool      `db:"enabled"`
	PlacementIndex int       `db:"placement_index"`
	Side           string    `db:"side"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
