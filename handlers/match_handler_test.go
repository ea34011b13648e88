package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatchService satisfies services.MatchService; only ListByTournament is
// observable, the rest are no-ops.
type stubMatchService struct {
	gotRound  *int
	gotStatus *models.MatchStatus
}

func (s *stubMatchService) Schedule(ctx context.Context, input services.ScheduleMatchInput) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) Start(ctx context.Context, id int) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) RecordResult(ctx context.Context, id int, input services.RecordResultInput) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) AddGame(ctx context.Context, id int, input services.AddGameInput) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) Reschedule(ctx context.Context, id int, newDate time.Time) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) Cancel(ctx context.Context, id int, reason string) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) Postpone(ctx context.Context, id int, reason string) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	s.gotRound = round
	s.gotStatus = status
	return nil, nil
}

func (s *stubMatchService) ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) ListOngoing(ctx context.Context) ([]*models.Match, error) {
	return nil, nil
}

func (s *stubMatchService) Delete(ctx context.Context, id int) error {
	return nil
}

func listMatchesRequest(t *testing.T, svc services.MatchService, query string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/tournaments/{id}/matches", NewMatchHandler(svc).ListByTournament)

	req := httptest.NewRequest(http.MethodGet, "/tournaments/1/matches"+query, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListByTournamentRoundFilter(t *testing.T) {
	t.Run("valid round is passed through", func(t *testing.T) {
		svc := &stubMatchService{}
		rec := listMatchesRequest(t, svc, "?round=2")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotRound)
		assert.Equal(t, 2, *svc.gotRound)
	})

	t.Run("round below one is a bad request", func(t *testing.T) {
		rec := listMatchesRequest(t, &stubMatchService{}, "?round=0")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid round parameter")
	})

	t.Run("non-numeric round is a bad request", func(t *testing.T) {
		rec := listMatchesRequest(t, &stubMatchService{}, "?round=abc")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status filter is passed through", func(t *testing.T) {
		svc := &stubMatchService{}
		rec := listMatchesRequest(t, svc, "?status=ongoing")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotStatus)
		assert.Equal(t, models.MatchStatusOngoing, *svc.gotStatus)
	})
}
