package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses in the handlers package.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrNewsNotFound       = errors.New("news post not found")
	ErrHighlightNotFound  = errors.New("highlight not found")

	// Validation and business rules
	ErrValidationFailed         = errors.New("validation failed")
	ErrPasswordTooShort         = errors.New("password is too short")
	ErrMatchSameCompetitor      = errors.New("a match requires two distinct competitors")
	ErrMatchCompetitorNotInTrnm = errors.New("competitor is not registered in this tournament")
	ErrMatchInvalidBestOf       = errors.New("match best-of count must be at least 1")
	ErrMatchInvalidRound        = errors.New("match round must be at least 1")
	ErrMatchInvalidBracket      = errors.New("invalid bracket segment")
	ErrMatchNegativeScore       = errors.New("match scores must be non-negative")
	ErrMatchInvalidGameWinner   = errors.New("game winner must be one of the two match competitors")
	ErrMatchDrawNotAllowed      = errors.New("draws are not allowed for this match")
	ErrMatchDateRequired        = errors.New("a new match date is required")
	ErrTournamentInvalidRegDate = errors.New("tournament registration deadline must not be after start date")
	ErrTournamentInvalidDates   = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCap     = errors.New("tournament max competitors must be positive")
	ErrRegistrationNotOpen      = errors.New("tournament registration is not open")
	ErrRegistrationClosed       = errors.New("tournament registration deadline has passed")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrNotEnoughCompetitors     = errors.New("not enough competitors to generate fixtures")
	ErrUploadUnsupportedContent = errors.New("unsupported media content type")

	// Invalid state
	ErrMatchNotScheduled       = errors.New("match can only be started from the scheduled state")
	ErrMatchAlreadyFinal       = errors.New("match is already in a terminal state")
	ErrMatchNotReschedulable   = errors.New("match cannot be rescheduled from its current state")
	ErrTournamentInvalidStatus = errors.New("invalid tournament status provided")
	ErrTournamentBadTransition = errors.New("invalid tournament status transition")
	ErrMatchConcurrentConflict = errors.New("match was updated concurrently, retry the operation")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTournamentSlugConflict = errors.New("tournament with this name already exists")
	ErrCompetitorNameConflict = errors.New("competitor name is already taken in this tournament")
	ErrNewsSlugConflict       = errors.New("news post with this title already exists")
	ErrGameOrdinalConflict    = errors.New("a game with this ordinal is already recorded")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
)
