package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StaffMember is a person who can own on-call days.
type StaffMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// TimeWindow bounds a duty shift within a day, "HH:MM" wall-clock strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedule maps days of the current month to owner ids and optional
// per-owner time windows. Day keys are canonical integer strings ("1",
// not "01"). A day absent from DayOwnerIDs means nobody is assigned;
// empty owner lists are never stored.
type Schedule struct {
	Month       int                              `json:"month"`
	Year        int                              `json:"year"`
	MonthYear   string                           `json:"monthYear"`
	DayOwnerIDs map[string][]string              `json:"dayOwnerIds"`
	DayTimes    map[string]map[string]TimeWindow `json:"dayTimes"`
}

// SupportContact is the fixed escalation contact shown when nobody on
// the roster answers.
type SupportContact struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

// Document is the canonical on-call roster document. One copy lives in
// the remote store, one in the local cache; everything in between is a
// deep copy.
type Document struct {
	Staff          []StaffMember  `json:"staff"`
	Schedule       Schedule       `json:"schedule"`
	SupportContact SupportContact `json:"supportContact"`
	UpdatedAt      *time.Time     `json:"updatedAt"`
}

// SupportContactDefaults are applied field-by-field: an empty string in
// a stored document never overrides the default for that field.
var SupportContactDefaults = SupportContact{
	Name:  "SUPERVISOR",
	Notes: "Escalation contact when no on-call owner answers.",
}

// Default returns a blank canonical document for the current month.
func Default(now time.Time) *Document {
	month := int(now.Month())
	year := now.Year()
	return &Document{
		Staff: []StaffMember{},
		Schedule: Schedule{
			Month:       month,
			Year:        year,
			MonthYear:   MonthYearLabel(month, year),
			DayOwnerIDs: map[string][]string{},
			DayTimes:    map[string]map[string]TimeWindow{},
		},
		SupportContact: SupportContactDefaults,
		UpdatedAt:      nil,
	}
}

// Clone returns a deep copy; callers may mutate the result freely.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Staff:          make([]StaffMember, len(d.Staff)),
		Schedule:       d.Schedule,
		SupportContact: d.SupportContact,
	}
	copy(out.Staff, d.Staff)

	out.Schedule.DayOwnerIDs = make(map[string][]string, len(d.Schedule.DayOwnerIDs))
	for day, ids := range d.Schedule.DayOwnerIDs {
		out.Schedule.DayOwnerIDs[day] = append([]string(nil), ids...)
	}
	out.Schedule.DayTimes = make(map[string]map[string]TimeWindow, len(d.Schedule.DayTimes))
	for day, byOwner := range d.Schedule.DayTimes {
		windows := make(map[string]TimeWindow, len(byOwner))
		for id, w := range byOwner {
			windows[id] = w
		}
		out.Schedule.DayTimes[day] = windows
	}
	if d.UpdatedAt != nil {
		ts := *d.UpdatedAt
		out.UpdatedAt = &ts
	}
	return out
}

// StaffByID returns the staff member with the given id, or nil.
func (d *Document) StaffByID(id string) *StaffMember {
	for i := range d.Staff {
		if d.Staff[i].ID == id {
			return &d.Staff[i]
		}
	}
	return nil
}

// NormalizeDisplayName trims, collapses inner whitespace and upper-cases
// a staff display name.
func NormalizeDisplayName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// MonthYearLabel renders the human-readable month/year label. The label
// is derived state: it is recomputed whenever month or year change,
// never authored independently.
func MonthYearLabel(month, year int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("?/%d", year)
	}
	return fmt.Sprintf("%s/%d", strings.ToUpper(time.Month(month).String()), year)
}

// DayKey converts a day number to its canonical key form.
func DayKey(day int) string {
	return strconv.Itoa(day)
}

// ParseDayKey parses a day key in any accepted form ("07", "7") and
// reports whether it names a day valid for some month (1-31). Validity
// against the current month's length is a presentation concern only.
func ParseDayKey(key string) (int, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}
