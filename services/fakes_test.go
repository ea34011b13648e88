package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/esportium/esports-arena/models"
	"github.com/esportium/esports-arena/repositories"
)

// In-memory repository fakes. They mimic the Postgres behavior the services
// rely on: generated IDs, copy-on-read, and compare-and-swap on match
// versions.

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if payload, ok := message.(map[string]interface{}); ok {
		if event, ok := payload["type"].(string); ok {
			h.events = append(h.events, event)
			return
		}
	}
	h.events = append(h.events, fmt.Sprintf("%v", message))
}

func (h *fakeHub) lastEvent() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return ""
	}
	return h.events[len(h.events)-1]
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]models.Match
	games   map[int][]models.MatchGame
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		matches: make(map[int]models.Match),
		games:   make(map[int][]models.MatchGame),
	}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.nextID++
	match.ID = r.nextID
	match.Version = 1
	r.matches[match.ID] = *match
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	stored, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	match := stored
	return &match, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var result []*models.Match
	for _, stored := range r.matches {
		if stored.TournamentID != tournamentID {
			continue
		}
		if round != nil && stored.Round != *round {
			continue
		}
		if status != nil && stored.Status != *status {
			continue
		}
		match := stored
		result = append(result, &match)
	}
	return result, nil
}

func (r *fakeMatchRepo) ListByCompetitor(ctx context.Context, competitorID int) ([]*models.Match, error) {
	var result []*models.Match
	for _, stored := range r.matches {
		if stored.TeamAID == competitorID || stored.TeamBID == competitorID {
			match := stored
			result = append(result, &match)
		}
	}
	return result, nil
}

func (r *fakeMatchRepo) ListUpcoming(ctx context.Context, limit int) ([]*models.Match, error) {
	var result []*models.Match
	for _, stored := range r.matches {
		if stored.Status == models.MatchStatusScheduled && len(result) < limit {
			match := stored
			result = append(result, &match)
		}
	}
	return result, nil
}

func (r *fakeMatchRepo) ListOngoing(ctx context.Context) ([]*models.Match, error) {
	var result []*models.Match
	for _, stored := range r.matches {
		if stored.Status == models.MatchStatusOngoing {
			match := stored
			result = append(result, &match)
		}
	}
	return result, nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != match.Version {
		return repositories.ErrMatchVersionConflict
	}
	match.Version++
	r.matches[match.ID] = *match
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	delete(r.games, id)
	return nil
}

func (r *fakeMatchRepo) AppendGame(ctx context.Context, exec repositories.SQLExecutor, game *models.MatchGame) error {
	for _, existing := range r.games[game.MatchID] {
		if existing.Ordinal == game.Ordinal {
			return repositories.ErrMatchGameConflict
		}
	}
	game.ID = len(r.games[game.MatchID]) + 1
	r.games[game.MatchID] = append(r.games[game.MatchID], *game)
	return nil
}

func (r *fakeMatchRepo) ListGames(ctx context.Context, matchID int) ([]models.MatchGame, error) {
	games := make([]models.MatchGame, len(r.games[matchID]))
	copy(games, r.games[matchID])
	return games, nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]models.Tournament)}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.nextID++
	tournament.ID = r.nextID
	r.tournaments[tournament.ID] = *tournament
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	stored, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	tournament := stored
	return &tournament, nil
}

func (r *fakeTournamentRepo) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	for _, stored := range r.tournaments {
		if stored.Slug == slug {
			tournament := stored
			return &tournament, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	var result []*models.Tournament
	for _, stored := range r.tournaments {
		tournament := stored
		result = append(result, &tournament)
	}
	return result, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[tournament.ID] = *tournament
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	stored, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.Status = status
	r.tournaments[id] = stored
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	stored, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	stored.LogoKey = logoKey
	r.tournaments[id] = stored
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) Exists(ctx context.Context, id int) (bool, error) {
	_, ok := r.tournaments[id]
	return ok, nil
}

type fakeCompetitorRepo struct {
	nextID      int
	competitors map[int]models.Competitor
}

func newFakeCompetitorRepo() *fakeCompetitorRepo {
	return &fakeCompetitorRepo{competitors: make(map[int]models.Competitor)}
}

func (r *fakeCompetitorRepo) add(tournamentID int, name string) int {
	r.nextID++
	r.competitors[r.nextID] = models.Competitor{
		ID:           r.nextID,
		TournamentID: tournamentID,
		Name:         name,
	}
	return r.nextID
}

func (r *fakeCompetitorRepo) Create(ctx context.Context, competitor *models.Competitor) error {
	for _, existing := range r.competitors {
		if existing.TournamentID == competitor.TournamentID && existing.Name == competitor.Name {
			return repositories.ErrCompetitorNameConflict
		}
	}
	r.nextID++
	competitor.ID = r.nextID
	r.competitors[competitor.ID] = *competitor
	return nil
}

func (r *fakeCompetitorRepo) GetByID(ctx context.Context, id int) (*models.Competitor, error) {
	stored, ok := r.competitors[id]
	if !ok {
		return nil, repositories.ErrCompetitorNotFound
	}
	competitor := stored
	return &competitor, nil
}

func (r *fakeCompetitorRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Competitor, error) {
	var result []*models.Competitor
	for id := 1; id <= r.nextID; id++ {
		stored, ok := r.competitors[id]
		if !ok || stored.TournamentID != tournamentID {
			continue
		}
		competitor := stored
		result = append(result, &competitor)
	}
	return result, nil
}

func (r *fakeCompetitorRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	count := 0
	for _, stored := range r.competitors {
		if stored.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCompetitorRepo) BelongsToTournament(ctx context.Context, competitorID, tournamentID int) (bool, error) {
	stored, ok := r.competitors[competitorID]
	return ok && stored.TournamentID == tournamentID, nil
}

func (r *fakeCompetitorRepo) ApplyOutcome(ctx context.Context, exec repositories.SQLExecutor, competitorID int, outcome repositories.MatchOutcome, points int) error {
	stored, ok := r.competitors[competitorID]
	if !ok {
		return repositories.ErrCompetitorNotFound
	}
	switch outcome {
	case repositories.OutcomeWin:
		stored.Wins++
	case repositories.OutcomeLoss:
		stored.Losses++
	case repositories.OutcomeDraw:
		stored.Draws++
	}
	stored.Points += points
	r.competitors[competitorID] = stored
	return nil
}

func (r *fakeCompetitorRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	stored, ok := r.competitors[id]
	if !ok {
		return repositories.ErrCompetitorNotFound
	}
	stored.LogoKey = logoKey
	r.competitors[id] = stored
	return nil
}

func (r *fakeCompetitorRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.competitors[id]; !ok {
		return repositories.ErrCompetitorNotFound
	}
	delete(r.competitors, id)
	return nil
}

type fakeNewsRepo struct {
	nextID int
	posts  map[int]models.News
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{posts: make(map[int]models.News)}
}

func (r *fakeNewsRepo) Create(ctx context.Context, post *models.News) error {
	for _, existing := range r.posts {
		if existing.Slug == post.Slug {
			return repositories.ErrNewsSlugConflict
		}
	}
	r.nextID++
	post.ID = r.nextID
	r.posts[post.ID] = *post
	return nil
}

func (r *fakeNewsRepo) GetByID(ctx context.Context, id int) (*models.News, error) {
	stored, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNewsNotFound
	}
	post := stored
	return &post, nil
}

func (r *fakeNewsRepo) GetBySlug(ctx context.Context, slug string) (*models.News, error) {
	for _, stored := range r.posts {
		if stored.Slug == slug {
			post := stored
			return &post, nil
		}
	}
	return nil, repositories.ErrNewsNotFound
}

func (r *fakeNewsRepo) List(ctx context.Context, limit, offset int) ([]*models.News, error) {
	var result []*models.News
	for _, stored := range r.posts {
		post := stored
		result = append(result, &post)
	}
	return result, nil
}

func (r *fakeNewsRepo) Update(ctx context.Context, post *models.News) error {
	if _, ok := r.posts[post.ID]; !ok {
		return repositories.ErrNewsNotFound
	}
	r.posts[post.ID] = *post
	return nil
}

func (r *fakeNewsRepo) UpdateCoverKey(ctx context.Context, id int, coverKey *string) error {
	stored, ok := r.posts[id]
	if !ok {
		return repositories.ErrNewsNotFound
	}
	stored.CoverKey = coverKey
	r.posts[id] = stored
	return nil
}

func (r *fakeNewsRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNewsNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakeNewsRepo) IncrementViews(ctx context.Context, id int) (int64, error) {
	stored, ok := r.posts[id]
	if !ok {
		return 0, repositories.ErrNewsNotFound
	}
	stored.Views++
	r.posts[id] = stored
	return stored.Views, nil
}

func (r *fakeNewsRepo) IncrementLikes(ctx context.Context, id int) (int64, error) {
	stored, ok := r.posts[id]
	if !ok {
		return 0, repositories.ErrNewsNotFound
	}
	stored.Likes++
	r.posts[id] = stored
	return stored.Likes, nil
}

func (r *fakeNewsRepo) IncrementShares(ctx context.Context, id int) (int64, error) {
	stored, ok := r.posts[id]
	if !ok {
		return 0, repositories.ErrNewsNotFound
	}
	stored.Shares++
	r.posts[id] = stored
	return stored.Shares, nil
}

type fakeUserRepo struct {
	nextID int
	users  map[int]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	stored, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user := stored
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, stored := range r.users {
		if stored.Email == email {
			user := stored
			return &user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
