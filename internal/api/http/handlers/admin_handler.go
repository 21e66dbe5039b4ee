package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-roster/internal/api/dto"
	"github.com/spec-kit/oncall-roster/internal/domain"
	"github.com/spec-kit/oncall-roster/internal/service"
	"github.com/spec-kit/oncall-roster/internal/syncer"
)

// AdminHandler exposes the mutating roster endpoints behind the gate.
type AdminHandler struct {
	roster *service.RosterService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(roster *service.RosterService) *AdminHandler {
	return &AdminHandler{roster: roster}
}

// CreateStaff handles POST /api/staff.
func (h *AdminHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	member, outcome, err := h.roster.AddStaff(c.UserContext(), staffInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":     member,
		"degraded": outcome.Degraded,
	})
}

// UpdateStaff handles PUT /api/staff/:id.
func (h *AdminHandler) UpdateStaff(c *fiber.Ctx) error {
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	member, outcome, err := h.roster.UpdateStaff(c.UserContext(), c.Params("id"), staffInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": member, "degraded": outcome.Degraded})
}

// DeleteStaff handles DELETE /api/staff/:id.
func (h *AdminHandler) DeleteStaff(c *fiber.Ctx) error {
	doc, outcome, err := h.roster.RemoveStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// AssignOwner handles POST /api/schedule/days/:day/owners/:id.
func (h *AdminHandler) AssignOwner(c *fiber.Ctx) error {
	day, err := dayParam(c)
	if err != nil {
		return err
	}
	doc, outcome, err := h.roster.AssignOwner(c.UserContext(), day, c.Params("id"))
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// UnassignOwner handles DELETE /api/schedule/days/:day/owners/:id.
func (h *AdminHandler) UnassignOwner(c *fiber.Ctx) error {
	day, err := dayParam(c)
	if err != nil {
		return err
	}
	doc, outcome, err := h.roster.UnassignOwner(c.UserContext(), day, c.Params("id"))
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// SetTimeWindow handles PUT /api/schedule/days/:day/owners/:id/window.
func (h *AdminHandler) SetTimeWindow(c *fiber.Ctx) error {
	day, err := dayParam(c)
	if err != nil {
		return err
	}
	var req dto.TimeWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	doc, outcome, err := h.roster.SetTimeWindow(c.UserContext(), day, c.Params("id"), req.Start, req.End)
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// ClearTimeWindow handles DELETE /api/schedule/days/:day/owners/:id/window.
func (h *AdminHandler) ClearTimeWindow(c *fiber.Ctx) error {
	day, err := dayParam(c)
	if err != nil {
		return err
	}
	doc, outcome, err := h.roster.ClearTimeWindow(c.UserContext(), day, c.Params("id"))
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// ApplyMonthYear handles PUT /api/schedule/month.
func (h *AdminHandler) ApplyMonthYear(c *fiber.Ctx) error {
	var req dto.MonthYearRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	doc, outcome, err := h.roster.ApplyMonthYear(c.UserContext(), req.Month, req.Year)
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// UpdateSupportContact handles PUT /api/support-contact.
func (h *AdminHandler) UpdateSupportContact(c *fiber.Ctx) error {
	var req dto.SupportContactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	doc, outcome, err := h.roster.UpdateSupportContact(c.UserContext(), service.SupportContactInput{
		Name:     req.Name,
		WhatsApp: req.WhatsApp,
		Phone:    req.Phone,
		Email:    req.Email,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return documentJSON(c, doc, outcome)
}

// Import handles POST /api/document/import. The raw body may be an
// arbitrarily old or hand-edited export; it is normalized before the
// store's document is replaced with it.
func (h *AdminHandler) Import(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(http.StatusBadRequest, "document body required")
	}
	doc, outcome := h.roster.Import(c.UserContext(), body)
	return documentJSON(c, doc, outcome)
}

// Reset handles POST /api/document/reset.
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	doc, outcome := h.roster.ResetDocument(c.UserContext())
	return documentJSON(c, doc, outcome)
}

func staffInput(req dto.StaffRequest) service.StaffInput {
	return service.StaffInput{
		Name:     req.Name,
		WhatsApp: req.WhatsApp,
		Phone:    req.Phone,
		Email:    req.Email,
		Notes:    req.Notes,
	}
}

func dayParam(c *fiber.Ctx) (int, error) {
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "day must be a number")
	}
	return day, nil
}

func documentJSON(c *fiber.Ctx, doc *domain.Document, outcome syncer.Outcome) error {
	return c.JSON(fiber.Map{"data": dto.DocumentResponse{
		Document: doc,
		Degraded: outcome.Degraded,
		Migrated: outcome.Migrated,
	}})
}
