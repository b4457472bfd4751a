package handlers

import (
	"context"
	"errors"
	"fmt"

	"bonus-hunt-service/middleware"
	"bonus-hunt-service/models"
	"bonus-hunt-service/services"

	"github.com/gofiber/fiber/v2"
)

type Exporter interface {
	Workbook(ctx context.Context, actor services.Actor, huntID int64) (*models.Hunt, []byte, error)
	Archive(ctx context.Context, actor services.Actor, huntID int64) (string, error)
}

type AdminHandler struct {
	hunts    HuntManager
	guesses  GuessManager
	exporter Exporter
}

// SetupAdminRoutes registers the admin panel routes under /admin. The services re-check the role.
func SetupAdminRoutes(app fiber.Router, hunts HuntManager, guesses GuessManager, exporter Exporter, requireSession, requireAdmin fiber.Handler) {
	h := &AdminHandler{hunts: hunts, guesses: guesses, exporter: exporter}

	admin := app.Group("/admin", requireSession, requireAdmin)
	admin.Get("/hunts/active", h.GetActiveHunt)
	admin.Put("/hunts", h.SaveHunt)
	admin.Post("/hunts/deactivate", h.DeactivateHunt)
	admin.Get("/hunts/:id/winners", h.GetWinners)
	admin.Get("/hunts/:id/export", h.ExportHunt)
	admin.Post("/hunts/:id/archive", h.ArchiveHunt)
	admin.Get("/guesses", h.RecentGuesses)
}

func actor(c *fiber.Ctx) services.Actor {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return services.Actor{}
	}
	return sess.Actor()
}

func huntIDParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("hunt id must be a positive whole number")
	}
	return int64(id), nil
}

func (h *AdminHandler) GetActiveHunt(c *fiber.Ctx) error {
	hunt, err := h.hunts.GetActiveHunt(c.UserContext())
	if errors.Is(err, services.ErrNoActiveHunt) {
		return c.JSON(fiber.Map{"active": false})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"active": true, "hunt": hunt})
}

// SaveHunt creates or replaces the active hunt and returns the hunt as re-read from storage.
func (h *AdminHandler) SaveHunt(c *fiber.Ctx) error {
	var in services.HuntInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body", err)
	}

	if _, err := h.hunts.CreateOrReplaceActiveHunt(c.UserContext(), actor(c), in); err != nil {
		return respondError(c, err)
	}

	hunt, err := h.hunts.GetActiveHunt(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Hunt saved!",
		"hunt":    hunt,
	})
}

func (h *AdminHandler) DeactivateHunt(c *fiber.Ctx) error {
	if err := h.hunts.DeactivateHunt(c.UserContext(), actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "No hunt is active now."})
}

func (h *AdminHandler) GetWinners(c *fiber.Ctx) error {
	huntID, err := huntIDParam(c)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	hunt, winners, err := h.guesses.HuntWinners(c.UserContext(), actor(c), huntID)
	if errors.Is(err, services.ErrNoGuesses) {
		return c.JSON(fiber.Map{
			"hunt_id": huntID,
			"winners": []services.RankedGuess{},
			"message": "No guesses submitted yet.",
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"hunt_id":    hunt.HuntID,
		"ending_bal": hunt.EndingBalance,
		"winners":    winners,
	})
}

func (h *AdminHandler) RecentGuesses(c *fiber.Ctx) error {
	guesses, err := h.guesses.RecentGuesses(c.UserContext(), actor(c), c.QueryInt("limit", services.DefaultRecentGuesses))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"guesses": guesses})
}

func (h *AdminHandler) ExportHunt(c *fiber.Ctx) error {
	huntID, err := huntIDParam(c)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	_, data, err := h.exporter.Workbook(c.UserContext(), actor(c), huntID)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="hunt-%d.xlsx"`, huntID))
	return c.Send(data)
}

func (h *AdminHandler) ArchiveHunt(c *fiber.Ctx) error {
	huntID, err := huntIDParam(c)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	url, err := h.exporter.Archive(c.UserContext(), actor(c), huntID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Hunt archived", "url": url})
}
