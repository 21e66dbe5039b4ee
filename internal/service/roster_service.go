package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/domain"
	"github.com/spec-kit/oncall-roster/internal/duty"
	"github.com/spec-kit/oncall-roster/internal/schema"
	"github.com/spec-kit/oncall-roster/internal/syncer"
	apperrors "github.com/spec-kit/oncall-roster/pkg/util"
)

// DocumentSync is the sync-layer surface the service mutates through.
type DocumentSync interface {
	Fetch(ctx context.Context) (*domain.Document, syncer.Outcome)
	Upsert(ctx context.Context, doc *domain.Document) (*domain.Document, syncer.Outcome)
	Replace(ctx context.Context, doc *domain.Document) (*domain.Document, syncer.Outcome)
	Reset(ctx context.Context) (*domain.Document, syncer.Outcome)
}

// RosterService applies schedule mutations as read-modify-write round
// trips through the sync layer. Last write wins; the intended
// deployment is a single administrator session.
type RosterService struct {
	sync   DocumentSync
	logger *zap.Logger
	now    func() time.Time
}

// NewRosterService constructs the service.
func NewRosterService(sync DocumentSync, logger *zap.Logger) *RosterService {
	return &RosterService{sync: sync, logger: logger, now: time.Now}
}

// StaffInput carries editable staff fields.
type StaffInput struct {
	Name     string
	WhatsApp string
	Phone    string
	Email    string
	Notes    string
}

// SupportContactInput carries editable support-contact fields.
type SupportContactInput struct {
	Name     string
	WhatsApp string
	Phone    string
	Email    string
	Notes    string
}

// TodayOwner is one of today's assigned staff members with their duty
// state, evaluated at request time only.
type TodayOwner struct {
	Member domain.StaffMember
	Window *domain.TimeWindow
	OnDuty bool
}

// TodayView is the presentation snapshot for the public page.
type TodayView struct {
	Day            int
	MonthYear      string
	Owners         []TodayOwner
	SupportContact domain.SupportContact
	UpdatedAt      *time.Time
	Degraded       bool
}

// Get returns the current canonical document.
func (s *RosterService) Get(ctx context.Context) (*domain.Document, syncer.Outcome) {
	return s.sync.Fetch(ctx)
}

// Today resolves who is on call right now. Owners only show when the
// schedule's month matches the calendar; other months' history stays
// untouched in the document.
func (s *RosterService) Today(ctx context.Context) (*TodayView, syncer.Outcome) {
	doc, outcome := s.sync.Fetch(ctx)
	now := s.now()

	view := &TodayView{
		Day:            now.Day(),
		MonthYear:      doc.Schedule.MonthYear,
		Owners:         []TodayOwner{},
		SupportContact: doc.SupportContact,
		UpdatedAt:      doc.UpdatedAt,
		Degraded:       outcome.Degraded,
	}

	if doc.Schedule.Month != int(now.Month()) || doc.Schedule.Year != now.Year() {
		return view, outcome
	}

	dayKey := domain.DayKey(now.Day())
	windows := doc.Schedule.DayTimes[dayKey]
	for _, id := range doc.Schedule.DayOwnerIDs[dayKey] {
		member := doc.StaffByID(id)
		if member == nil {
			continue
		}
		owner := TodayOwner{Member: *member}
		if window, ok := windows[id]; ok {
			w := window
			owner.Window = &w
			owner.OnDuty = duty.IsOnDuty(window.Start, window.End, now)
		}
		view.Owners = append(view.Owners, owner)
	}
	return view, outcome
}

// AddStaff creates a staff member. Names are advisory-unique after
// normalization; duplicates are rejected here, not in the model.
func (s *RosterService) AddStaff(ctx context.Context, input StaffInput) (*domain.StaffMember, syncer.Outcome, error) {
	name := domain.NormalizeDisplayName(input.Name)
	if name == "" {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("name required", nil)
	}

	var created domain.StaffMember
	doc, outcome, err := s.mutate(ctx, func(doc *domain.Document) error {
		if member := staffByName(doc, name, ""); member != nil {
			return apperrors.NewConflict("staff name already exists", map[string]any{"name": name})
		}
		created = domain.StaffMember{
			ID:       uuid.NewString(),
			Name:     name,
			WhatsApp: input.WhatsApp,
			Phone:    input.Phone,
			Email:    input.Email,
			Notes:    input.Notes,
		}
		doc.Staff = append(doc.Staff, created)
		return nil
	})
	if err != nil {
		return nil, outcome, err
	}
	if member := doc.StaffByID(created.ID); member != nil {
		created = *member
	}
	return &created, outcome, nil
}

// UpdateStaff edits a staff member in place.
func (s *RosterService) UpdateStaff(ctx context.Context, id string, input StaffInput) (*domain.StaffMember, syncer.Outcome, error) {
	name := domain.NormalizeDisplayName(input.Name)
	if name == "" {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("name required", nil)
	}

	var updated domain.StaffMember
	doc, outcome, err := s.mutate(ctx, func(doc *domain.Document) error {
		member := doc.StaffByID(id)
		if member == nil {
			return apperrors.NewNotFound("staff member", map[string]any{"id": id})
		}
		if other := staffByName(doc, name, id); other != nil {
			return apperrors.NewConflict("staff name already exists", map[string]any{"name": name})
		}
		member.Name = name
		member.WhatsApp = input.WhatsApp
		member.Phone = input.Phone
		member.Email = input.Email
		member.Notes = input.Notes
		updated = *member
		return nil
	})
	if err != nil {
		return nil, outcome, err
	}
	if member := doc.StaffByID(id); member != nil {
		updated = *member
	}
	return &updated, outcome, nil
}

// RemoveStaff deletes a staff member and cascades through every day's
// owners and time windows, pruning emptied containers.
func (s *RosterService) RemoveStaff(ctx context.Context, id string) (*domain.Document, syncer.Outcome, error) {
	return s.mutate(ctx, func(doc *domain.Document) error {
		found := false
		kept := doc.Staff[:0]
		for _, member := range doc.Staff {
			if member.ID == id {
				found = true
				continue
			}
			kept = append(kept, member)
		}
		if !found {
			return apperrors.NewNotFound("staff member", map[string]any{"id": id})
		}
		doc.Staff = kept

		for day, ids := range doc.Schedule.DayOwnerIDs {
			remaining := removeID(ids, id)
			if len(remaining) == 0 {
				delete(doc.Schedule.DayOwnerIDs, day)
			} else {
				doc.Schedule.DayOwnerIDs[day] = remaining
			}
		}
		for day, windows := range doc.Schedule.DayTimes {
			delete(windows, id)
			if len(windows) == 0 {
				delete(doc.Schedule.DayTimes, day)
			}
		}
		return nil
	})
}

// AssignOwner adds a staff member to a day. Assigning an already
// assigned owner is a no-op.
func (s *RosterService) AssignOwner(ctx context.Context, day int, id string) (*domain.Document, syncer.Outcome, error) {
	key, err := dayKeyOf(day)
	if err != nil {
		return nil, syncer.Outcome{}, err
	}
	return s.mutate(ctx, func(doc *domain.Document) error {
		if doc.StaffByID(id) == nil {
			return apperrors.NewNotFound("staff member", map[string]any{"id": id})
		}
		owners := doc.Schedule.DayOwnerIDs[key]
		for _, existing := range owners {
			if existing == id {
				return nil
			}
		}
		doc.Schedule.DayOwnerIDs[key] = append(owners, id)
		return nil
	})
}

// UnassignOwner removes a staff member from a day, deleting their time
// window for that day along with it.
func (s *RosterService) UnassignOwner(ctx context.Context, day int, id string) (*domain.Document, syncer.Outcome, error) {
	key, err := dayKeyOf(day)
	if err != nil {
		return nil, syncer.Outcome{}, err
	}
	return s.mutate(ctx, func(doc *domain.Document) error {
		remaining := removeID(doc.Schedule.DayOwnerIDs[key], id)
		if len(remaining) == 0 {
			delete(doc.Schedule.DayOwnerIDs, key)
		} else {
			doc.Schedule.DayOwnerIDs[key] = remaining
		}
		if windows, ok := doc.Schedule.DayTimes[key]; ok {
			delete(windows, id)
			if len(windows) == 0 {
				delete(doc.Schedule.DayTimes, key)
			}
		}
		return nil
	})
}

// SetTimeWindow sets the duty window for an owner on a day. The owner
// must be assigned to that day; a dangling window is never created.
func (s *RosterService) SetTimeWindow(ctx context.Context, day int, id, start, end string) (*domain.Document, syncer.Outcome, error) {
	key, err := dayKeyOf(day)
	if err != nil {
		return nil, syncer.Outcome{}, err
	}
	if _, ok := duty.ParseClock(start); !ok {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("start must be HH:MM", map[string]any{"start": start})
	}
	if _, ok := duty.ParseClock(end); !ok {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("end must be HH:MM", map[string]any{"end": end})
	}
	return s.mutate(ctx, func(doc *domain.Document) error {
		if !containsID(doc.Schedule.DayOwnerIDs[key], id) {
			return apperrors.NewConflict("owner is not assigned to this day", map[string]any{"day": key, "id": id})
		}
		windows := doc.Schedule.DayTimes[key]
		if windows == nil {
			windows = map[string]domain.TimeWindow{}
			doc.Schedule.DayTimes[key] = windows
		}
		windows[id] = domain.TimeWindow{Start: start, End: end}
		return nil
	})
}

// ClearTimeWindow removes a duty window; the assignment stays.
func (s *RosterService) ClearTimeWindow(ctx context.Context, day int, id string) (*domain.Document, syncer.Outcome, error) {
	key, err := dayKeyOf(day)
	if err != nil {
		return nil, syncer.Outcome{}, err
	}
	return s.mutate(ctx, func(doc *domain.Document) error {
		if windows, ok := doc.Schedule.DayTimes[key]; ok {
			delete(windows, id)
			if len(windows) == 0 {
				delete(doc.Schedule.DayTimes, key)
			}
		}
		return nil
	})
}

// ApplyMonthYear moves the schedule to a month/year and recomputes the
// derived label. Day assignments are left alone so other months'
// history survives the move.
func (s *RosterService) ApplyMonthYear(ctx context.Context, month, year int) (*domain.Document, syncer.Outcome, error) {
	if month < 1 || month > 12 {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("month must be 1-12", map[string]any{"month": month})
	}
	if year < 1000 || year > 9999 {
		return nil, syncer.Outcome{}, apperrors.NewValidationError("year must be four digits", map[string]any{"year": year})
	}
	return s.mutate(ctx, func(doc *domain.Document) error {
		doc.Schedule.Month = month
		doc.Schedule.Year = year
		doc.Schedule.MonthYear = domain.MonthYearLabel(month, year)
		return nil
	})
}

// UpdateSupportContact edits the escalation contact. Empty fields fall
// back to their defaults when the document is normalized.
func (s *RosterService) UpdateSupportContact(ctx context.Context, input SupportContactInput) (*domain.Document, syncer.Outcome, error) {
	return s.mutate(ctx, func(doc *domain.Document) error {
		doc.SupportContact = domain.SupportContact{
			Name:     input.Name,
			WhatsApp: input.WhatsApp,
			Phone:    input.Phone,
			Email:    input.Email,
			Notes:    input.Notes,
		}
		return nil
	})
}

// Import normalizes an interchange document (which may be arbitrarily
// old or hand-edited) and replaces the store's copy with it.
func (s *RosterService) Import(ctx context.Context, raw []byte) (*domain.Document, syncer.Outcome) {
	doc, migrated := schema.NormalizeJSON(raw)
	if migrated {
		s.logger.Info("imported document required migration")
	}
	return s.sync.Replace(ctx, doc)
}

// ResetDocument discards the roster and starts blank.
func (s *RosterService) ResetDocument(ctx context.Context) (*domain.Document, syncer.Outcome) {
	return s.sync.Reset(ctx)
}

// mutate runs one fetch-modify-upsert round trip. The fetched document
// is already a private deep copy, so the mutation never races the
// cached state.
func (s *RosterService) mutate(ctx context.Context, apply func(*domain.Document) error) (*domain.Document, syncer.Outcome, error) {
	doc, fetchOutcome := s.sync.Fetch(ctx)
	if err := apply(doc); err != nil {
		return nil, fetchOutcome, err
	}
	saved, outcome := s.sync.Upsert(ctx, doc)
	outcome.Degraded = outcome.Degraded || fetchOutcome.Degraded
	return saved, outcome, nil
}

func dayKeyOf(day int) (string, error) {
	if day < 1 || day > 31 {
		return "", apperrors.NewValidationError("day must be 1-31", map[string]any{"day": day})
	}
	return domain.DayKey(day), nil
}

func staffByName(doc *domain.Document, normalized, excludeID string) *domain.StaffMember {
	for i := range doc.Staff {
		if doc.Staff[i].ID == excludeID {
			continue
		}
		if domain.NormalizeDisplayName(doc.Staff[i].Name) == normalized {
			return &doc.Staff[i]
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
