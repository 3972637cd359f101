package models

import "time"

// Arena is a tournament: it groups teams, a player pool and matches.
type Arena struct {
	ID              int       `json:"id" db:"id"`
	UniqueID        string    `json:"unique_id" db:"unique_id"`
	Name            string    `json:"name" db:"name"`
	Description     *string   `json:"description,omitempty" db:"description"`
	OrganizerID     int       `json:"organizer_id" db:"organizer_id"`
	IsPublic        bool      `json:"is_public" db:"is_public"`
	IsLocked        bool      `json:"is_locked" db:"is_locked"`
	ScorerPIN       string    `json:"-" db:"scorer_pin"`
	RankingCriteria []string  `json:"ranking_criteria" db:"ranking_criteria"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	Organizer *User `json:"organizer,omitempty" db:"-"`
	MemberIDs []int `json:"member_ids,omitempty" db:"-"`
}

func (a *Arena) HasMember(userID int) bool {
	if a.OrganizerID == userID {
		return true
	}
	for _, id := range a.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

type JoinRequest struct {
	ID         int               `json:"id" db:"id"`
	ArenaID    int               `json:"arena_id" db:"arena_id"`
	UserID     int               `json:"user_id" db:"user_id"`
	Username   string            `json:"username" db:"username"`
	Status     JoinRequestStatus `json:"status" db:"status"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
}
