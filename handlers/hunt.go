// handlers/hunt.go
package handlers

import (
	"context"
	"errors"
	"time"

	"bonus-hunt-service/middleware"
	"bonus-hunt-service/models"
	"bonus-hunt-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxLeaderboardLimit = 100

type HuntManager interface {
	GetActiveHunt(ctx context.Context) (*models.Hunt, error)
	CreateOrReplaceActiveHunt(ctx context.Context, actor services.Actor, in services.HuntInput) (*models.Hunt, error)
	DeactivateHunt(ctx context.Context, actor services.Actor) error
}

type GuessManager interface {
	SubmitForActiveHunt(ctx context.Context, sess *services.Session, value services.NumberInput) (*models.Guess, error)
	HuntLeaderboard(ctx context.Context, hunt *models.Hunt, limit int) ([]services.RankedGuess, error)
	HuntWinners(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []services.RankedGuess, error)
	RecentGuesses(ctx context.Context, actor services.Actor, limit int) ([]models.Guess, error)
}

type HuntHandler struct {
	hunts   HuntManager
	guesses GuessManager
}

type leaderboardEntry struct {
	Rank        int             `json:"rank"`
	UserName    string          `json:"user_name"`
	Guess       decimal.Decimal `json:"guess"`
	Diff        decimal.Decimal `json:"diff"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

type submitGuessRequest struct {
	Guess services.NumberInput `json:"guess" form:"guess"`
}

// SetupHuntRoutes registers the player-facing hunt and guess routes.
func SetupHuntRoutes(app fiber.Router, hunts HuntManager, guesses GuessManager, requireSession, rateLimit fiber.Handler) {
	h := &HuntHandler{hunts: hunts, guesses: guesses}

	// 🔓 Public
	app.Get("/hunts/active", h.GetActiveHunt)
	app.Get("/hunts/active/leaderboard", h.GetLeaderboard)

	// 🔐 Signed in
	app.Post("/guesses", requireSession, rateLimit, h.SubmitGuess)
}

// GetActiveHunt answers 200 with {"active": false} when no hunt is running.
func (h *HuntHandler) GetActiveHunt(c *fiber.Ctx) error {
	hunt, err := h.hunts.GetActiveHunt(c.UserContext())
	if errors.Is(err, services.ErrNoActiveHunt) {
		return c.JSON(fiber.Map{"active": false})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"active":              true,
		"hunt":                hunt,
		"leaderboard_visible": hunt.LeaderboardVisible(),
	})
}

// GetLeaderboard ranks the active hunt's guesses once the hunt allows it and its ending balance is known.
func (h *HuntHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", services.DefaultLeaderboardLimit)
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	hunt, err := h.hunts.GetActiveHunt(c.UserContext())
	if errors.Is(err, services.ErrNoActiveHunt) {
		return c.JSON(fiber.Map{"visible": false})
	}
	if err != nil {
		return respondError(c, err)
	}
	if !hunt.LeaderboardVisible() {
		return c.JSON(fiber.Map{"visible": false, "hunt_id": hunt.HuntID})
	}

	ranked, err := h.guesses.HuntLeaderboard(c.UserContext(), hunt, limit)
	if err != nil {
		return respondError(c, err)
	}

	entries := make([]leaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = leaderboardEntry{
			Rank:        r.Rank,
			UserName:    r.UserName,
			Guess:       r.Value,
			Diff:        r.Diff,
			SubmittedAt: r.CreatedAt,
		}
	}
	return c.JSON(fiber.Map{
		"visible":    true,
		"hunt_id":    hunt.HuntID,
		"ending_bal": hunt.EndingBalance,
		"entries":    entries,
	})
}

func (h *HuntHandler) SubmitGuess(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return respondError(c, services.ErrNoSession)
	}

	var req submitGuessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}

	guess, err := h.guesses.SubmitForActiveHunt(c.UserContext(), sess, req.Guess)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Guess submitted!",
		"guess":   guess,
	})
}
