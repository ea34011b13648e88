package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tournamentServiceFixture struct {
	service        TournamentService
	tournamentRepo *fakeTournamentRepo
	competitorRepo *fakeCompetitorRepo
	matchRepo      *fakeMatchRepo
	userRepo       *fakeUserRepo

	organizerID int
}

func setupTournamentService(t *testing.T) *tournamentServiceFixture {
	t.Helper()

	tournamentRepo := newFakeTournamentRepo()
	competitorRepo := newFakeCompetitorRepo()
	matchRepo := newFakeMatchRepo()
	userRepo := newFakeUserRepo()

	organizer := &models.User{
		FirstName: "Olga",
		Nickname:  "org",
		Email:     "org@example.com",
		Role:      models.RoleOrganizer,
	}
	require.NoError(t, userRepo.Create(context.Background(), organizer))

	svc := NewTournamentService(nil, tournamentRepo, competitorRepo, matchRepo, userRepo, nil, slog.Default())

	return &tournamentServiceFixture{
		service:        svc,
		tournamentRepo: tournamentRepo,
		competitorRepo: competitorRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		organizerID:    organizer.ID,
	}
}

func validCreateInput() CreateTournamentInput {
	now := time.Now()
	return CreateTournamentInput{
		Name:           "Winter Major",
		Game:           "Valorant",
		RegDeadline:    now.Add(24 * time.Hour),
		StartDate:      now.Add(48 * time.Hour),
		EndDate:        now.Add(96 * time.Hour),
		MaxCompetitors: 16,
	}
}

func TestCreateTournament(t *testing.T) {
	f := setupTournamentService(t)

	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "winter-major", tournament.Slug)
	assert.Equal(t, models.TournamentStatusUpcoming, tournament.Status)
	assert.Equal(t, f.organizerID, tournament.OrganizerID)
}

func TestCreateTournamentDateValidation(t *testing.T) {
	f := setupTournamentService(t)
	now := time.Now()

	t.Run("deadline after start", func(t *testing.T) {
		input := validCreateInput()
		input.RegDeadline = now.Add(72 * time.Hour)
		input.StartDate = now.Add(48 * time.Hour)
		_, err := f.service.Create(context.Background(), f.organizerID, input)
		assert.ErrorIs(t, err, ErrTournamentInvalidRegDate)
	})

	t.Run("end before start", func(t *testing.T) {
		input := validCreateInput()
		input.StartDate = now.Add(96 * time.Hour)
		input.EndDate = now.Add(48 * time.Hour)
		_, err := f.service.Create(context.Background(), f.organizerID, input)
		assert.ErrorIs(t, err, ErrTournamentInvalidDates)
	})

	t.Run("zero capacity", func(t *testing.T) {
		input := validCreateInput()
		input.MaxCompetitors = 0
		_, err := f.service.Create(context.Background(), f.organizerID, input)
		assert.ErrorIs(t, err, ErrTournamentInvalidCap)
	})
}

func TestUpdateTournamentAllowList(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	newName := "Winter Major 2026"
	updated, err := f.service.Update(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, UpdateTournamentInput{
		Name: &newName,
	})
	require.NoError(t, err)

	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, "winter-major-2026", updated.Slug)
	// Untouched fields keep their values.
	assert.Equal(t, tournament.Game, updated.Game)
	assert.Equal(t, tournament.MaxCompetitors, updated.MaxCompetitors)
}

func TestUpdateTournamentForbidden(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	newName := "Hijacked"
	_, err = f.service.Update(context.Background(), tournament.ID, f.organizerID+100, models.RolePlayer, UpdateTournamentInput{
		Name: &newName,
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestUpdateTournamentStatusTransitions(t *testing.T) {
	f := setupTournamentService(t)

	newTournament := func(t *testing.T) *models.Tournament {
		tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
		require.NoError(t, err)
		return tournament
	}

	t.Run("upcoming to registration", func(t *testing.T) {
		tournament := newTournament(t)
		updated, err := f.service.UpdateStatus(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, models.TournamentStatusRegistration)
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusRegistration, updated.Status)
	})

	t.Run("upcoming straight to completed is rejected", func(t *testing.T) {
		tournament := newTournament(t)
		_, err := f.service.UpdateStatus(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, models.TournamentStatusCompleted)
		assert.ErrorIs(t, err, ErrTournamentBadTransition)
	})

	t.Run("cancelled is final", func(t *testing.T) {
		tournament := newTournament(t)
		_, err := f.service.UpdateStatus(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, models.TournamentStatusCancelled)
		require.NoError(t, err)
		_, err = f.service.UpdateStatus(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, models.TournamentStatusRegistration)
		assert.ErrorIs(t, err, ErrTournamentBadTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		tournament := newTournament(t)
		_, err := f.service.UpdateStatus(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, models.TournamentStatus("paused"))
		assert.ErrorIs(t, err, ErrTournamentInvalidStatus)
	})
}

func TestGetTournamentDetails(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	f.competitorRepo.add(tournament.ID, "Alpha")
	f.competitorRepo.add(tournament.ID, "Bravo")

	details, err := f.service.GetDetails(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.Len(t, details.Competitors, 2)
	require.NotNil(t, details.Organizer)
	assert.Equal(t, f.organizerID, details.Organizer.ID)
	assert.Empty(t, details.Organizer.PasswordHash)
}

func TestGenerateFixtures(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	ids := []int{
		f.competitorRepo.add(tournament.ID, "Alpha"),
		f.competitorRepo.add(tournament.ID, "Bravo"),
		f.competitorRepo.add(tournament.ID, "Charlie"),
		f.competitorRepo.add(tournament.ID, "Delta"),
	}

	startAt := time.Now().Add(48 * time.Hour)
	matches, err := f.service.GenerateFixtures(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, startAt, 3)
	require.NoError(t, err)

	// Single round-robin: n*(n-1)/2 pairings.
	require.Len(t, matches, 6)

	seen := make(map[[2]int]bool)
	for _, match := range matches {
		assert.Equal(t, models.MatchStatusScheduled, match.Status)
		assert.Equal(t, 3, match.BestOf)
		assert.NotEqual(t, match.TeamAID, match.TeamBID)
		pair := [2]int{match.TeamAID, match.TeamBID}
		assert.False(t, seen[pair], "pair %v scheduled twice", pair)
		seen[pair] = true
	}

	// Every competitor appears in exactly n-1 matches.
	appearances := make(map[int]int)
	for _, match := range matches {
		appearances[match.TeamAID]++
		appearances[match.TeamBID]++
	}
	for _, id := range ids {
		assert.Equal(t, len(ids)-1, appearances[id])
	}
}

func TestGenerateFixturesNotEnoughCompetitors(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)
	f.competitorRepo.add(tournament.ID, "Solo")

	_, err = f.service.GenerateFixtures(context.Background(), tournament.ID, f.organizerID, models.RoleOrganizer, time.Now().Add(time.Hour), 3)
	assert.ErrorIs(t, err, ErrNotEnoughCompetitors)
}

func TestDeleteTournamentForbidden(t *testing.T) {
	f := setupTournamentService(t)
	tournament, err := f.service.Create(context.Background(), f.organizerID, validCreateInput())
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), tournament.ID, f.organizerID+1, models.RolePlayer)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	// Admins may delete any tournament.
	err = f.service.Delete(context.Background(), tournament.ID, f.organizerID+1, models.RoleAdmin)
	assert.NoError(t, err)
}
