package dto

import (
	"time"

	"github.com/spec-kit/oncall-roster/internal/domain"
)

// LoginRequest payload for the admin password gate.
type LoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse carries the issued session token.
type AuthResponse struct {
	Token string `json:"token"`
}

// StaffRequest payload for creating or editing a staff member.
type StaffRequest struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

// TimeWindowRequest payload for setting a duty window.
type TimeWindowRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MonthYearRequest payload for moving the schedule.
type MonthYearRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// SupportContactRequest payload for editing the escalation contact.
type SupportContactRequest struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

// DocumentResponse wraps the canonical document with sync status.
type DocumentResponse struct {
	Document *domain.Document `json:"document"`
	Degraded bool             `json:"degraded"`
	Migrated bool             `json:"migrated,omitempty"`
}

// TodayOwnerResponse is one assigned owner with live duty state.
type TodayOwnerResponse struct {
	Member domain.StaffMember `json:"member"`
	Window *domain.TimeWindow `json:"window,omitempty"`
	OnDuty bool               `json:"onDuty"`
}

// TodayResponse is the public page snapshot.
type TodayResponse struct {
	Day            int                   `json:"day"`
	MonthYear      string                `json:"monthYear"`
	Owners         []TodayOwnerResponse  `json:"owners"`
	SupportContact domain.SupportContact `json:"supportContact"`
	UpdatedAt      *time.Time            `json:"updatedAt"`
	Degraded       bool                  `json:"degraded"`
}
