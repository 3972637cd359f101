package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	ArenaID     int       `json:"arena_id" db:"arena_id"`
	Name        string    `json:"name" db:"name"`
	PlayerNames []string  `json:"player_names" db:"player_names"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PoolPlayer is an entry of an arena's player pool. Registered players carry
// their user ID and username; guests only have a name.
type PoolPlayer struct {
	ID        int       `json:"id" db:"id"`
	ArenaID   int       `json:"arena_id" db:"arena_id"`
	Name      string    `json:"name" db:"name"`
	Username  *string   `json:"username,omitempty" db:"username"`
	UserID    *int      `json:"user_id,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (p PoolPlayer) IsRegistered() bool {
	return p.UserID != nil
}
