package services

import "errors"

var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidUsername    = errors.New("username may only contain letters, digits, dots, dashes and underscores")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("role must be player or organizer")
	ErrInvalidScorerPIN   = errors.New("scorer PIN must be exactly 4 digits")
	ErrInvalidSchedule    = errors.New("invalid match date or time")
	ErrSameTeam           = errors.New("a match needs two different teams")
	ErrTeamNotInArena     = errors.New("team does not belong to this arena")
	ErrEmptyImport        = errors.New("nothing to import")

	ErrUsernameTaken     = errors.New("username is already taken")
	ErrAlreadyMember     = errors.New("user is already a member of this arena")
	ErrJoinRequestExists = errors.New("a join request is already pending")
	ErrTeamNameConflict  = errors.New("team name is already used in this arena")
	ErrPlayerInPool      = errors.New("player is already in the pool")
	ErrTeamInUse         = errors.New("team is part of a scheduled match")
	ErrArenaLocked       = errors.New("arena is locked")
	ErrArenaNotLocked    = errors.New("arena must be locked before matches can be scheduled")
	ErrMatchCompleted    = errors.New("match is already completed")
	ErrScoreConflict     = errors.New("match was updated concurrently, reload and retry")
	ErrNothingToUndo     = errors.New("no score change to undo")
	ErrScoreLogMismatch  = errors.New("score log does not match the match score")
	ErrRequestResolved   = errors.New("join request is already resolved")
	ErrFixturesExist     = errors.New("arena already has matches")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrScoringNotAllowed    = errors.New("invalid scorer PIN, access denied")

	ErrUserNotFound        = errors.New("user not found")
	ErrArenaNotFound       = errors.New("arena not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrPoolPlayerNotFound  = errors.New("pool player not found")
	ErrJoinRequestNotFound = errors.New("join request not found")

	ErrStorageUnavailable = errors.New("file storage is not configured")
)
