package services

import (
	"context"
	"testing"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchServiceFixture struct {
	service        *matchService
	matchRepo      *fakeMatchRepo
	tournamentRepo *fakeTournamentRepo
	competitorRepo *fakeCompetitorRepo
	hub            *fakeHub

	tournamentID int
	teamA        int
	teamB        int
	outsider     int
}

func setupMatchService(t *testing.T, policy MatchPolicy) *matchServiceFixture {
	t.Helper()

	tournamentRepo := newFakeTournamentRepo()
	competitorRepo := newFakeCompetitorRepo()
	matchRepo := newFakeMatchRepo()
	hub := &fakeHub{}

	tournament := &models.Tournament{
		Name:   "Summer Cup",
		Game:   "CS2",
		Status: models.TournamentStatusActive,
	}
	require.NoError(t, tournamentRepo.Create(context.Background(), tournament))

	other := &models.Tournament{Name: "Other Cup", Game: "Dota 2"}
	require.NoError(t, tournamentRepo.Create(context.Background(), other))

	svc := NewMatchService(nil, fakeTransactor{}, matchRepo, tournamentRepo, competitorRepo, hub, policy).(*matchService)

	return &matchServiceFixture{
		service:        svc,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		competitorRepo: competitorRepo,
		hub:            hub,
		tournamentID:   tournament.ID,
		teamA:          competitorRepo.add(tournament.ID, "Alpha"),
		teamB:          competitorRepo.add(tournament.ID, "Bravo"),
		outsider:       competitorRepo.add(other.ID, "Charlie"),
	}
}

func (f *matchServiceFixture) schedule(t *testing.T, bestOf int) *models.Match {
	t.Helper()
	match, err := f.service.Schedule(context.Background(), ScheduleMatchInput{
		TournamentID: f.tournamentID,
		TeamAID:      f.teamA,
		TeamBID:      f.teamB,
		ScheduledAt:  time.Now().Add(24 * time.Hour),
		Round:        1,
		BestOf:       bestOf,
	})
	require.NoError(t, err)
	return match
}

func (f *matchServiceFixture) ledger(t *testing.T, competitorID int) models.Competitor {
	t.Helper()
	competitor, err := f.competitorRepo.GetByID(context.Background(), competitorID)
	require.NoError(t, err)
	return *competitor
}

func TestScheduleMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())

	match := f.schedule(t, 3)

	assert.Equal(t, models.MatchStatusScheduled, match.Status)
	assert.Equal(t, models.BracketGroup, match.Bracket)
	assert.Equal(t, 1, match.Version)
	assert.Nil(t, match.WinnerID)
	assert.Equal(t, "MATCH_SCHEDULED", f.hub.lastEvent())
}

func TestScheduleMatchValidation(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	scheduledAt := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		input   ScheduleMatchInput
		wantErr error
	}{
		{
			name: "same competitor on both sides",
			input: ScheduleMatchInput{
				TournamentID: f.tournamentID, TeamAID: f.teamA, TeamBID: f.teamA,
				ScheduledAt: scheduledAt, Round: 1, BestOf: 3,
			},
			wantErr: ErrMatchSameCompetitor,
		},
		{
			name: "best of zero",
			input: ScheduleMatchInput{
				TournamentID: f.tournamentID, TeamAID: f.teamA, TeamBID: f.teamB,
				ScheduledAt: scheduledAt, Round: 1, BestOf: 0,
			},
			wantErr: ErrMatchInvalidBestOf,
		},
		{
			name: "round below one",
			input: ScheduleMatchInput{
				TournamentID: f.tournamentID, TeamAID: f.teamA, TeamBID: f.teamB,
				ScheduledAt: scheduledAt, Round: 0, BestOf: 3,
			},
			wantErr: ErrMatchInvalidRound,
		},
		{
			name: "missing date",
			input: ScheduleMatchInput{
				TournamentID: f.tournamentID, TeamAID: f.teamA, TeamBID: f.teamB,
				Round: 1, BestOf: 3,
			},
			wantErr: ErrMatchDateRequired,
		},
		{
			name: "unknown tournament",
			input: ScheduleMatchInput{
				TournamentID: 999, TeamAID: f.teamA, TeamBID: f.teamB,
				ScheduledAt: scheduledAt, Round: 1, BestOf: 3,
			},
			wantErr: ErrTournamentNotFound,
		},
		{
			name: "competitor from another tournament",
			input: ScheduleMatchInput{
				TournamentID: f.tournamentID, TeamAID: f.teamA, TeamBID: f.outsider,
				ScheduledAt: scheduledAt, Round: 1, BestOf: 3,
			},
			wantErr: ErrMatchCompetitorNotInTrnm,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Schedule(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestStartMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	started, err := f.service.Start(context.Background(), match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, "MATCH_STARTED", f.hub.lastEvent())

	_, err = f.service.Start(context.Background(), match.ID)
	assert.ErrorIs(t, err, ErrMatchNotScheduled)
}

func TestRecordResultWinner(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 5)
	_, err := f.service.Start(context.Background(), match.ID)
	require.NoError(t, err)

	result, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{
		ScoreA: 3, ScoreB: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, result.Status)
	require.NotNil(t, result.WinnerID)
	assert.Equal(t, f.teamA, *result.WinnerID)
	require.NotNil(t, result.EndedAt)
	require.NotNil(t, result.StartedAt)
	assert.True(t, result.EndedAt.After(*result.StartedAt), "end must land strictly after start")
	assert.Equal(t, "MATCH_COMPLETED", f.hub.lastEvent())

	winner := f.ledger(t, f.teamA)
	loser := f.ledger(t, f.teamB)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 3, winner.Points)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 0, loser.Points)
}

func TestRecordResultTie(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	result, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{
		ScoreA: 2, ScoreB: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, result.Status)
	assert.Nil(t, result.WinnerID)

	for _, id := range []int{f.teamA, f.teamB} {
		entry := f.ledger(t, id)
		assert.Equal(t, 1, entry.Draws)
		assert.Equal(t, 1, entry.Points)
	}
}

func TestRecordResultTieDisallowed(t *testing.T) {
	policy := DefaultMatchPolicy()
	policy.AllowDraws = false
	f := setupMatchService(t, policy)
	match := f.schedule(t, 3)

	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{
		ScoreA: 1, ScoreB: 1,
	})
	assert.ErrorIs(t, err, ErrMatchDrawNotAllowed)
}

func TestRecordResultNegativeScore(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{
		ScoreA: -1, ScoreB: 2,
	})
	assert.ErrorIs(t, err, ErrMatchNegativeScore)
}

func TestRecordResultOnFinalMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{ScoreA: 2, ScoreB: 0})
	require.NoError(t, err)

	// A second result must not double-count the ledger.
	_, err = f.service.RecordResult(context.Background(), match.ID, RecordResultInput{ScoreA: 0, ScoreB: 2})
	assert.ErrorIs(t, err, ErrMatchAlreadyFinal)

	winner := f.ledger(t, f.teamA)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 3, winner.Points)
}

func TestRecordResultFromScheduledDisallowed(t *testing.T) {
	policy := DefaultMatchPolicy()
	policy.AllowResultFromScheduled = false
	f := setupMatchService(t, policy)
	match := f.schedule(t, 3)

	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{ScoreA: 2, ScoreB: 0})
	assert.ErrorIs(t, err, ErrMatchNotStarted)
}

func TestAddGameBestOfThree(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	// Game 1: A wins. The first game starts a scheduled match implicitly.
	updated, err := f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 10, WinnerID: &f.teamA,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, updated.Status)
	require.NotNil(t, updated.StartedAt)
	assert.Equal(t, 1, updated.ScoreA)
	assert.Equal(t, "MATCH_GAME_ADDED", f.hub.lastEvent())

	// Game 2: B equalizes.
	updated, err = f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 7, ScoreB: 16, WinnerID: &f.teamB,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, updated.Status)
	assert.Equal(t, 1, updated.ScoreB)

	// Game 3: A takes the series 2-1.
	updated, err = f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 14, WinnerID: &f.teamA,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, f.teamA, *updated.WinnerID)
	assert.Len(t, updated.Games, 3)
	assert.Equal(t, "MATCH_COMPLETED", f.hub.lastEvent())

	winner := f.ledger(t, f.teamA)
	assert.Equal(t, 1, winner.Wins)
}

func TestAddGameBestOfFiveNotDecided(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 5)

	for i := 0; i < 2; i++ {
		updated, err := f.service.AddGame(context.Background(), match.ID, AddGameInput{
			ScoreA: 16, ScoreB: 5, WinnerID: &f.teamA,
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusOngoing, updated.Status)
		assert.Nil(t, updated.WinnerID)
	}

	// Third win reaches the required three of five.
	updated, err := f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 9, WinnerID: &f.teamA,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, f.teamA, *updated.WinnerID)
}

func TestAddGameInvalidWinner(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	_, err := f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 2, WinnerID: &f.outsider,
	})
	assert.ErrorIs(t, err, ErrMatchInvalidGameWinner)
}

func TestAddGameOnFinalMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 1)

	_, err := f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 3, WinnerID: &f.teamA,
	})
	require.NoError(t, err)

	_, err = f.service.AddGame(context.Background(), match.ID, AddGameInput{
		ScoreA: 16, ScoreB: 3, WinnerID: &f.teamB,
	})
	assert.ErrorIs(t, err, ErrMatchAlreadyFinal)
}

func TestCancelMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	cancelled, err := f.service.Cancel(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Notes)
	assert.Equal(t, "no reason provided", *cancelled.Notes)
	assert.Equal(t, "MATCH_CANCELLED", f.hub.lastEvent())

	_, err = f.service.Cancel(context.Background(), match.ID, "again")
	assert.ErrorIs(t, err, ErrMatchAlreadyFinal)
}

func TestPostponeAndReschedule(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	postponed, err := f.service.Postpone(context.Background(), match.ID, "venue flooded")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPostponed, postponed.Status)
	require.NotNil(t, postponed.Notes)
	assert.Equal(t, "venue flooded", *postponed.Notes)

	newDate := time.Now().Add(72 * time.Hour)
	rescheduled, err := f.service.Reschedule(context.Background(), match.ID, newDate)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusScheduled, rescheduled.Status)
	assert.True(t, rescheduled.ScheduledAt.Equal(newDate))
	assert.Nil(t, rescheduled.StartedAt)
	assert.Nil(t, rescheduled.EndedAt)
}

func TestRescheduleCompletedMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)
	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{ScoreA: 2, ScoreB: 0})
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), match.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrMatchNotReschedulable)
}

func TestRescheduleCompletedMatchAllowedByPolicy(t *testing.T) {
	policy := DefaultMatchPolicy()
	policy.AllowRescheduleCompleted = true
	f := setupMatchService(t, policy)
	match := f.schedule(t, 3)
	_, err := f.service.RecordResult(context.Background(), match.ID, RecordResultInput{ScoreA: 2, ScoreB: 0})
	require.NoError(t, err)

	rescheduled, err := f.service.Reschedule(context.Background(), match.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusScheduled, rescheduled.Status)
	assert.Nil(t, rescheduled.StartedAt)
	assert.Nil(t, rescheduled.EndedAt)
}

func TestRescheduleOngoingMatch(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)
	_, err := f.service.Start(context.Background(), match.ID)
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), match.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrMatchNotReschedulable)
}

// staleMatchRepo fails every update with a version conflict, simulating a
// concurrent writer winning the compare-and-swap.
type staleMatchRepo struct {
	*fakeMatchRepo
}

func (r *staleMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return repositories.ErrMatchVersionConflict
}

func TestConcurrentUpdateConflict(t *testing.T) {
	f := setupMatchService(t, DefaultMatchPolicy())
	match := f.schedule(t, 3)

	f.service.matchRepo = &staleMatchRepo{fakeMatchRepo: f.matchRepo}

	_, err := f.service.Start(context.Background(), match.ID)
	assert.ErrorIs(t, err, ErrMatchConcurrentConflict)
}

func TestRequiredWins(t *testing.T) {
	tests := []struct {
		bestOf int
		want   int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{5, 3},
		{7, 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, models.RequiredWins(tc.bestOf), "best of %d", tc.bestOf)
	}
}
