package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
)

// ErrMatchNotStarted is returned when a result is recorded against a match
// that has not been started and the policy forbids results from scheduled.
var ErrMatchNotStarted = errors.New("match result requires an ongoing match")

// LiveBroadcaster pushes match events to connected websocket clients.
// Implemented by live.Hub.
type LiveBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// MatchPolicy captures the organizational choices the source behavior left
// implicit. Defaults reproduce the documented behavior; deployments can
// tighten them.
type MatchPolicy struct {
	// AllowDraws permits equal-score results; the match completes with no
	// winner and both competitors are credited a draw.
	AllowDraws bool
	// AllowResultFromScheduled permits recording a result without an explicit
	// start transition.
	AllowResultFromScheduled bool
	// AllowRescheduleCompleted reopens completed matches on reschedule. Off by
	// default: the ledger has already been updated by then.
	AllowRescheduleCompleted bool
	WinPoints                int
	DrawPoints               int
}

func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		AllowDraws:               true,
		AllowResultFromScheduled: true,
		AllowRescheduleCompleted: false,
		WinPoints:                3,
		DrawPoints:               1,
	}
}

type ScheduleMatchInput struct {
	TournamentID int                   `json:"tournament_id"`
	TeamAID      int                   `json:"team_a_id"`
	TeamBID      int                   `json:"team_b_id"`
	RefereeID    *int                  `json:"referee_id,omitempty"`
	ScheduledAt  time.Time             `json:"scheduled_at"`
	Round        int                   `json:"round"`
	Bracket      models.BracketSegment `json:"bracket"`
	BestOf       int                   `json:"best_of"`
}

type RecordResultInput struct {
	Result string `json:"result"`
	ScoreA int    `json:"score_a"`
	ScoreB int    `json:"score_b"`
}

type AddGameInput struct {
	Ordinal  int  `json:"ordinal"`
	ScoreA   int  `json:"score_a"`
	ScoreB   int  `json:"score_b"`
	WinnerID *int `json:"winner_id,omitempty"`
}

type MatchService interface {
	Schedule(ctx context.Context, input ScheduleMatchInput) (*models.Match, error)
	Start(ctx context.Context, id int) (*models.Match, error)
	RecordResult(ctx context.Context, id int, input RecordResultInput) (*models.Match, error)
	AddGame(ctx context.Context, id int, input AddGameInput) (*models.Match, error)
	Reschedule(ctx context.Context, id int, newDate time.Time) (*models.Match, error)
	Cancel(ctx context.Context, id int, reason string) (*models.Match, error)
	Postpone(ctx context.Context, id int, reason string) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error)
	ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error)
	ListOngoing(ctx context.Context) ([]*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type matchService struct {
	db             repositories.SQLExecutor
	txr            repositories.Transactor
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	competitorRepo repositories.CompetitorRepository
	hub            LiveBroadcaster
	policy         MatchPolicy
	now            func() time.Time
}

func NewMatchService(
	db repositories.SQLExecutor,
	txr repositories.Transactor,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	competitorRepo repositories.CompetitorRepository,
	hub LiveBroadcaster,
	policy MatchPolicy,
) MatchService {
	return &matchService{
		db:             db,
		txr:            txr,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		competitorRepo: competitorRepo,
		hub:            hub,
		policy:         policy,
		now:            time.Now,
	}
}

const defaultStatusNote = "no reason provided"

func (s *matchService) Schedule(ctx context.Context, input ScheduleMatchInput) (*models.Match, error) {
	if input.TeamAID == input.TeamBID {
		return nil, ErrMatchSameCompetitor
	}
	if input.BestOf < 1 {
		return nil, ErrMatchInvalidBestOf
	}
	if input.Round < 1 {
		return nil, ErrMatchInvalidRound
	}
	if input.Bracket == "" {
		input.Bracket = models.BracketGroup
	}
	if !input.Bracket.Valid() {
		return nil, ErrMatchInvalidBracket
	}
	if input.ScheduledAt.IsZero() {
		return nil, ErrMatchDateRequired
	}

	exists, err := s.tournamentRepo.Exists(ctx, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tournament %d: %w", input.TournamentID, err)
	}
	if !exists {
		return nil, ErrTournamentNotFound
	}

	for _, competitorID := range []int{input.TeamAID, input.TeamBID} {
		belongs, err := s.competitorRepo.BelongsToTournament(ctx, competitorID, input.TournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check competitor %d: %w", competitorID, err)
		}
		if !belongs {
			return nil, fmt.Errorf("%w: competitor %d", ErrMatchCompetitorNotInTrnm, competitorID)
		}
	}

	match := &models.Match{
		TournamentID: input.TournamentID,
		TeamAID:      input.TeamAID,
		TeamBID:      input.TeamBID,
		RefereeID:    input.RefereeID,
		Round:        input.Round,
		Bracket:      input.Bracket,
		BestOf:       input.BestOf,
		ScheduledAt:  input.ScheduledAt,
		Status:       models.MatchStatusScheduled,
	}

	if err := s.matchRepo.Create(ctx, s.db, match); err != nil {
		return nil, translateMatchRepoError(err)
	}

	s.broadcast("MATCH_SCHEDULED", match)
	return match, nil
}

func (s *matchService) Start(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}

	startedAt := s.now()
	match.StartedAt = &startedAt
	match.Status = models.MatchStatusOngoing

	if err := s.matchRepo.Update(ctx, s.db, match); err != nil {
		return nil, translateMatchRepoError(err)
	}

	s.broadcast("MATCH_STARTED", match)
	return match, nil
}

// RecordResult completes a match from a direct score entry. The side with the
// strictly greater score wins; equal scores complete the match without a
// winner when draws are allowed. The competitor ledger is updated in the same
// transaction as the match itself.
func (s *matchService) RecordResult(ctx context.Context, id int, input RecordResultInput) (*models.Match, error) {
	if input.ScoreA < 0 || input.ScoreB < 0 {
		return nil, ErrMatchNegativeScore
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}
	if match.Status.Terminal() {
		return nil, ErrMatchAlreadyFinal
	}
	if match.Status == models.MatchStatusScheduled && !s.policy.AllowResultFromScheduled {
		return nil, ErrMatchNotStarted
	}
	if input.ScoreA == input.ScoreB && !s.policy.AllowDraws {
		return nil, ErrMatchDrawNotAllowed
	}

	match.ScoreA = input.ScoreA
	match.ScoreB = input.ScoreB
	if input.Result != "" {
		match.Result = &input.Result
	}
	switch {
	case input.ScoreA > input.ScoreB:
		match.WinnerID = &match.TeamAID
	case input.ScoreB > input.ScoreA:
		match.WinnerID = &match.TeamBID
	default:
		match.WinnerID = nil
	}
	s.stampCompleted(match)

	if err := s.finishMatch(ctx, match); err != nil {
		return nil, err
	}

	s.broadcast("MATCH_COMPLETED", match)
	return match, nil
}

// AddGame appends one game to the best-of-N sequence and re-derives the match
// winner from the full sequence. The recount is deliberately not incremental:
// games edited or removed out of band would otherwise drift from the cached
// tally.
func (s *matchService) AddGame(ctx context.Context, id int, input AddGameInput) (*models.Match, error) {
	if input.ScoreA < 0 || input.ScoreB < 0 {
		return nil, ErrMatchNegativeScore
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}
	if match.Status.Terminal() {
		return nil, ErrMatchAlreadyFinal
	}
	if input.WinnerID != nil && *input.WinnerID != match.TeamAID && *input.WinnerID != match.TeamBID {
		return nil, ErrMatchInvalidGameWinner
	}

	games, err := s.matchRepo.ListGames(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games for match %d: %w", match.ID, err)
	}

	game := models.MatchGame{
		MatchID:  match.ID,
		Ordinal:  input.Ordinal,
		ScoreA:   input.ScoreA,
		ScoreB:   input.ScoreB,
		WinnerID: input.WinnerID,
	}
	if game.Ordinal == 0 {
		game.Ordinal = len(games) + 1
	}
	if game.Ordinal < 1 {
		return nil, fmt.Errorf("%w: game ordinal must be at least 1", ErrValidationFailed)
	}

	// A first game against a scheduled match starts it implicitly.
	if match.Status == models.MatchStatusScheduled {
		startedAt := s.now()
		match.StartedAt = &startedAt
		match.Status = models.MatchStatusOngoing
	}

	sequence := append(games, game)
	winsA, winsB := countGameWins(sequence, match.TeamAID, match.TeamBID)
	match.ScoreA = winsA
	match.ScoreB = winsB

	required := models.RequiredWins(match.BestOf)
	decided := false
	switch {
	case winsA >= required:
		match.WinnerID = &match.TeamAID
		decided = true
	case winsB >= required:
		match.WinnerID = &match.TeamBID
		decided = true
	}
	if decided {
		s.stampCompleted(match)
	}

	err = s.txr.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.AppendGame(ctx, exec, &game); err != nil {
			return translateMatchRepoError(err)
		}
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return translateMatchRepoError(err)
		}
		if decided {
			return s.applyLedger(ctx, exec, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	match.Games = sequence
	if decided {
		s.broadcast("MATCH_COMPLETED", match)
	} else {
		s.broadcast("MATCH_GAME_ADDED", match)
	}
	return match, nil
}

func (s *matchService) Reschedule(ctx context.Context, id int, newDate time.Time) (*models.Match, error) {
	if newDate.IsZero() {
		return nil, ErrMatchDateRequired
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}

	switch match.Status {
	case models.MatchStatusScheduled, models.MatchStatusPostponed:
	case models.MatchStatusCompleted:
		if !s.policy.AllowRescheduleCompleted {
			return nil, ErrMatchNotReschedulable
		}
	default:
		return nil, ErrMatchNotReschedulable
	}

	match.ScheduledAt = newDate
	match.Status = models.MatchStatusScheduled
	match.StartedAt = nil
	match.EndedAt = nil

	if err := s.matchRepo.Update(ctx, s.db, match); err != nil {
		return nil, translateMatchRepoError(err)
	}

	s.broadcast("MATCH_RESCHEDULED", match)
	return match, nil
}

func (s *matchService) Cancel(ctx context.Context, id int, reason string) (*models.Match, error) {
	return s.close(ctx, id, reason, models.MatchStatusCancelled, "MATCH_CANCELLED")
}

func (s *matchService) Postpone(ctx context.Context, id int, reason string) (*models.Match, error) {
	return s.close(ctx, id, reason, models.MatchStatusPostponed, "MATCH_POSTPONED")
}

func (s *matchService) close(ctx context.Context, id int, reason string, status models.MatchStatus, event string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}
	if match.Status.Terminal() {
		return nil, ErrMatchAlreadyFinal
	}

	if reason == "" {
		reason = defaultStatusNote
	}
	match.Notes = &reason
	match.Status = status

	if err := s.matchRepo.Update(ctx, s.db, match); err != nil {
		return nil, translateMatchRepoError(err)
	}

	s.broadcast(event, match)
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}

	games, err := s.matchRepo.ListGames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load games for match %d: %w", id, err)
	}
	match.Games = games
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, round, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByCompetitor(ctx, competitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for competitor %d: %w", competitorID, err)
	}
	return matches, nil
}

func (s *matchService) ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	matches, err := s.matchRepo.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListOngoing(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListOngoing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) Delete(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return translateMatchRepoError(err)
	}
	return nil
}

// finishMatch persists a completed match and its ledger follow-up in one
// transaction, so a completed result is never visible without the competitor
// records reflecting it.
func (s *matchService) finishMatch(ctx context.Context, match *models.Match) error {
	return s.txr.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return translateMatchRepoError(err)
		}
		return s.applyLedger(ctx, exec, match)
	})
}

func (s *matchService) applyLedger(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if match.WinnerID == nil {
		for _, competitorID := range []int{match.TeamAID, match.TeamBID} {
			if err := s.competitorRepo.ApplyOutcome(ctx, exec, competitorID, repositories.OutcomeDraw, s.policy.DrawPoints); err != nil {
				return fmt.Errorf("failed to record draw for competitor %d: %w", competitorID, err)
			}
		}
		return nil
	}

	loserID := match.TeamAID
	if *match.WinnerID == match.TeamAID {
		loserID = match.TeamBID
	}
	if err := s.competitorRepo.ApplyOutcome(ctx, exec, *match.WinnerID, repositories.OutcomeWin, s.policy.WinPoints); err != nil {
		return fmt.Errorf("failed to record win for competitor %d: %w", *match.WinnerID, err)
	}
	if err := s.competitorRepo.ApplyOutcome(ctx, exec, loserID, repositories.OutcomeLoss, 0); err != nil {
		return fmt.Errorf("failed to record loss for competitor %d: %w", loserID, err)
	}
	return nil
}

func (s *matchService) stampCompleted(match *models.Match) {
	endedAt := s.now()
	// The end timestamp must land strictly after the start.
	if match.StartedAt != nil && !endedAt.After(*match.StartedAt) {
		endedAt = match.StartedAt.Add(time.Second)
	}
	match.EndedAt = &endedAt
	match.Status = models.MatchStatusCompleted
}

func (s *matchService) broadcast(event string, match *models.Match) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), map[string]interface{}{
		"type":    event,
		"payload": match,
	})
}

func countGameWins(games []models.MatchGame, teamAID, teamBID int) (winsA, winsB int) {
	for _, game := range games {
		if game.WinnerID == nil {
			continue
		}
		switch *game.WinnerID {
		case teamAID:
			winsA++
		case teamBID:
			winsB++
		}
	}
	return winsA, winsB
}

func translateMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return ErrMatchConcurrentConflict
	case errors.Is(err, repositories.ErrMatchGameConflict):
		return ErrGameOrdinalConflict
	case errors.Is(err, repositories.ErrMatchTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchCompetitorInvalid):
		return ErrCompetitorNotFound
	}
	return err
}
