package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-roster/internal/api/dto"
	"github.com/spec-kit/oncall-roster/internal/service"
)

// RosterHandler exposes the public read endpoints.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// Document handles GET /api/document.
func (h *RosterHandler) Document(c *fiber.Ctx) error {
	doc, outcome := h.roster.Get(c.UserContext())
	return c.JSON(fiber.Map{"data": dto.DocumentResponse{
		Document: doc,
		Degraded: outcome.Degraded,
		Migrated: outcome.Migrated,
	}})
}

// Export handles GET /api/document/export. The body is the bare
// interchange document, suitable for re-import elsewhere.
func (h *RosterHandler) Export(c *fiber.Ctx) error {
	doc, _ := h.roster.Get(c.UserContext())
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="roster.json"`)
	return c.JSON(doc)
}

// Today handles GET /api/today.
func (h *RosterHandler) Today(c *fiber.Ctx) error {
	view, _ := h.roster.Today(c.UserContext())

	owners := make([]dto.TodayOwnerResponse, 0, len(view.Owners))
	for _, owner := range view.Owners {
		owners = append(owners, dto.TodayOwnerResponse{
			Member: owner.Member,
			Window: owner.Window,
			OnDuty: owner.OnDuty,
		})
	}

	return c.JSON(fiber.Map{"data": dto.TodayResponse{
		Day:            view.Day,
		MonthYear:      view.MonthYear,
		Owners:         owners,
		SupportContact: view.SupportContact,
		UpdatedAt:      view.UpdatedAt,
		Degraded:       view.Degraded,
	}})
}
