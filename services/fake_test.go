package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bonus-hunt-service/models"

	"gorm.io/gorm"
)

// ------------------------
// Fake Store
// ------------------------

// FakeStore is an in-memory implementation of every store interface. Func fields,
// when set, replace the default behaviour of the matching method.
type FakeStore struct {
	mu      sync.Mutex
	trace   []string
	clock   time.Time
	hunts   map[int64]models.Hunt
	guesses []models.Guess
	profile map[string]models.Profile
	revoked map[string]models.RevokedSession

	ActivateHuntFunc   func(ctx context.Context, hunt *models.Hunt) error
	ActiveHuntFunc     func(ctx context.Context) (*models.Hunt, error)
	InsertGuessFunc    func(ctx context.Context, guess *models.Guess) error
	GuessesForHuntFunc func(ctx context.Context, huntID int64) ([]models.Guess, error)
	RecentGuessesFunc  func(ctx context.Context, limit int) ([]models.Guess, error)
	IsRevokedFunc      func(ctx context.Context, sessionID string) (bool, error)
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		clock:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		hunts:   make(map[int64]models.Hunt),
		profile: make(map[string]models.Profile),
		revoked: make(map[string]models.RevokedSession),
	}
}

func (f *FakeStore) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *FakeStore) PutHunt(h models.Hunt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hunts[h.HuntID] = h
}

func (f *FakeStore) StoredHunt(id int64) (models.Hunt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hunts[id]
	return h, ok
}

func (f *FakeStore) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.hunts {
		if h.IsActive {
			n++
		}
	}
	return n
}

func (f *FakeStore) StoredGuesses() []models.Guess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Guess(nil), f.guesses...)
}

func (f *FakeStore) ActiveHunt(ctx context.Context) (*models.Hunt, error) {
	if f.ActiveHuntFunc != nil {
		return f.ActiveHuntFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ActiveHunt")
	var best *models.Hunt
	for _, h := range f.hunts {
		if h.IsActive && (best == nil || h.HuntID > best.HuntID) {
			h := h
			best = &h
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (f *FakeStore) Hunt(_ context.Context, huntID int64) (*models.Hunt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Hunt")
	h, ok := f.hunts[huntID]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (f *FakeStore) ActivateHunt(ctx context.Context, hunt *models.Hunt) error {
	if f.ActivateHuntFunc != nil {
		return f.ActivateHuntFunc(ctx, hunt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ActivateHunt")
	for id, h := range f.hunts {
		h.IsActive = false
		f.hunts[id] = h
	}
	hunt.IsActive = true
	now := f.tick()
	if existing, ok := f.hunts[hunt.HuntID]; ok {
		hunt.CreatedAt = existing.CreatedAt
	} else {
		hunt.CreatedAt = now
	}
	hunt.UpdatedAt = now
	f.hunts[hunt.HuntID] = *hunt
	return nil
}

func (f *FakeStore) DeactivateHunts(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeactivateHunts")
	var n int64
	for id, h := range f.hunts {
		if h.IsActive {
			h.IsActive = false
			f.hunts[id] = h
			n++
		}
	}
	return n, nil
}

func (f *FakeStore) InsertGuess(ctx context.Context, guess *models.Guess) error {
	if f.InsertGuessFunc != nil {
		return f.InsertGuessFunc(ctx, guess)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertGuess")
	for _, g := range f.guesses {
		if g.UserID == guess.UserID && g.HuntID == guess.HuntID {
			return fmt.Errorf("insert guess: %w", gorm.ErrDuplicatedKey)
		}
	}
	guess.CreatedAt = f.tick()
	f.guesses = append(f.guesses, *guess)
	return nil
}

func (f *FakeStore) GuessesForHunt(ctx context.Context, huntID int64) ([]models.Guess, error) {
	if f.GuessesForHuntFunc != nil {
		return f.GuessesForHuntFunc(ctx, huntID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GuessesForHunt")
	var out []models.Guess
	for _, g := range f.guesses {
		if g.HuntID == huntID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *FakeStore) RecentGuesses(ctx context.Context, limit int) ([]models.Guess, error) {
	if f.RecentGuessesFunc != nil {
		return f.RecentGuessesFunc(ctx, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RecentGuesses")
	out := append([]models.Guess(nil), f.guesses...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertProfile")
	if existing, ok := f.profile[p.ID]; ok {
		existing.UserName = p.UserName
		existing.AvatarURL = p.AvatarURL
		existing.Email = p.Email
		f.profile[p.ID] = existing
		return nil
	}
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	f.profile[p.ID] = *p
	return nil
}

func (f *FakeStore) Profile(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Profile")
	p, ok := f.profile[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (f *FakeStore) SetRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetRole")
	p, ok := f.profile[userID]
	if !ok {
		return ErrNotFound
	}
	p.Role = role
	f.profile[userID] = p
	return nil
}

func (f *FakeStore) RevokeSession(_ context.Context, r *models.RevokedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RevokeSession")
	f.revoked[r.SessionID] = *r
	return nil
}

func (f *FakeStore) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	if f.IsRevokedFunc != nil {
		return f.IsRevokedFunc(ctx, sessionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[sessionID]
	return ok, nil
}

func (f *FakeStore) PurgeExpiredRevocations(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.revoked {
		if r.ExpiresAt.Before(before) {
			delete(f.revoked, id)
			n++
		}
	}
	return n, nil
}
