package handlers

import (
	"context"

	"bonus-hunt-service/models"
	"bonus-hunt-service/services"
	"bonus-hunt-service/workers"
)

// ------------------------
// Fake services
// ------------------------

type FakeHunts struct {
	GetActiveHuntFunc   func(ctx context.Context) (*models.Hunt, error)
	CreateOrReplaceFunc func(ctx context.Context, actor services.Actor, in services.HuntInput) (*models.Hunt, error)
	DeactivateFunc      func(ctx context.Context, actor services.Actor) error
}

func (f *FakeHunts) GetActiveHunt(ctx context.Context) (*models.Hunt, error) {
	if f.GetActiveHuntFunc == nil {
		return nil, services.ErrNoActiveHunt
	}
	return f.GetActiveHuntFunc(ctx)
}

func (f *FakeHunts) CreateOrReplaceActiveHunt(ctx context.Context, actor services.Actor, in services.HuntInput) (*models.Hunt, error) {
	return f.CreateOrReplaceFunc(ctx, actor, in)
}

func (f *FakeHunts) DeactivateHunt(ctx context.Context, actor services.Actor) error {
	return f.DeactivateFunc(ctx, actor)
}

type FakeGuesses struct {
	SubmitFunc      func(ctx context.Context, sess *services.Session, value services.NumberInput) (*models.Guess, error)
	LeaderboardFunc func(ctx context.Context, hunt *models.Hunt, limit int) ([]services.RankedGuess, error)
	WinnersFunc     func(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []services.RankedGuess, error)
	RecentFunc      func(ctx context.Context, actor services.Actor, limit int) ([]models.Guess, error)
}

func (f *FakeGuesses) SubmitForActiveHunt(ctx context.Context, sess *services.Session, value services.NumberInput) (*models.Guess, error) {
	return f.SubmitFunc(ctx, sess, value)
}

func (f *FakeGuesses) HuntLeaderboard(ctx context.Context, hunt *models.Hunt, limit int) ([]services.RankedGuess, error) {
	return f.LeaderboardFunc(ctx, hunt, limit)
}

func (f *FakeGuesses) HuntWinners(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []services.RankedGuess, error) {
	return f.WinnersFunc(ctx, actor, huntID)
}

func (f *FakeGuesses) RecentGuesses(ctx context.Context, actor services.Actor, limit int) ([]models.Guess, error) {
	return f.RecentFunc(ctx, actor, limit)
}

type FakeExporter struct {
	WorkbookFunc func(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []byte, error)
	ArchiveFunc  func(ctx context.Context, actor services.Actor, huntID int64) (string, error)
}

func (f *FakeExporter) Workbook(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []byte, error) {
	return f.WorkbookFunc(ctx, actor, huntID)
}

func (f *FakeExporter) Archive(ctx context.Context, actor services.Actor, huntID int64) (string, error) {
	return f.ArchiveFunc(ctx, actor, huntID)
}

type FakeLogin struct {
	CompleteFunc func(ctx context.Context, code string) (string, *services.Session, error)
}

func (f *FakeLogin) LoginURL(state string) string {
	return "https://discord.example/authorize?state=" + state
}

func (f *FakeLogin) CompleteLogin(ctx context.Context, code string) (string, *services.Session, error) {
	return f.CompleteFunc(ctx, code)
}

type FakeSessionEnder struct {
	ended []string
	err   error
}

func (f *FakeSessionEnder) SignOut(_ context.Context, sess *services.Session) error {
	if f.err != nil {
		return f.err
	}
	f.ended = append(f.ended, sess.ID)
	return nil
}

type FakeStream struct {
	status workers.StreamStatus
}

func (f *FakeStream) Status() workers.StreamStatus { return f.status }
