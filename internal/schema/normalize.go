// Package schema repairs any structurally plausible prior version of the
// roster document into the canonical shape. Normalization is total and
// idempotent: it never fails, and normalizing an already-canonical
// document reports no migration.
package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/oncall-roster/internal/domain"
)

// Legacy key aliases carried over from the original deployment's wire
// format. Their presence always marks the document as migrated.
const (
	legacyStaffKey    = "colaboradores"
	legacySCheduleKey = "escala"
	legacySupportKey  = "apoioPedro"
	legacySingleOwner = "dayOwnerId"
	legacyNameKey     = "nome"
	legacyPhoneKey    = "telefone"
	legacyNotesKey    = "obs"
	legacyStartKey    = "inicio"
	legacyEndKey      = "fim"
)

// Normalize upgrades raw (a decoded JSON value of any shape) to the
// canonical document. The second return reports whether anything had to
// be repaired; it is always false when the input was already canonical.
func Normalize(raw any) (*domain.Document, bool) {
	return NormalizeAt(raw, time.Now())
}

// NormalizeJSON decodes and normalizes a serialized document. Malformed
// JSON degrades to the default document rather than erroring.
func NormalizeJSON(data []byte) (*domain.Document, bool) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Normalize(nil)
	}
	return Normalize(raw)
}

// NormalizeAt is Normalize with an explicit clock, used when filling a
// missing month/year.
func NormalizeAt(raw any, now time.Time) (*domain.Document, bool) {
	migrated := false

	root, ok := raw.(map[string]any)
	if !ok {
		root = map[string]any{}
		migrated = true
	}

	doc := &domain.Document{}

	staff, changed := normalizeStaff(aliasedValue(root, "staff", legacyStaffKey, &migrated))
	migrated = migrated || changed
	doc.Staff = staff

	sched, changed := normalizeSchedule(aliasedValue(root, "schedule", legacySCheduleKey, &migrated), now)
	migrated = migrated || changed
	doc.Schedule = sched

	repairOwnerReferences(doc, &migrated)
	pruneOrphanWindows(doc, &migrated)

	contact, changed := normalizeSupportContact(aliasedValue(root, "supportContact", legacySupportKey, &migrated))
	migrated = migrated || changed
	doc.SupportContact = contact

	ts, changed := normalizeUpdatedAt(root)
	migrated = migrated || changed
	doc.UpdatedAt = ts

	return doc, migrated
}

// aliasedValue fetches the canonical key, falling back to its legacy
// alias. Using the alias is itself a migration.
func aliasedValue(m map[string]any, key, alias string, migrated *bool) any {
	if v, ok := m[key]; ok {
		return v
	}
	if v, ok := m[alias]; ok {
		*migrated = true
		return v
	}
	return nil
}

func normalizeStaff(raw any) ([]domain.StaffMember, bool) {
	migrated := false
	entries, ok := raw.([]any)
	if !ok {
		return []domain.StaffMember{}, true
	}

	out := make([]domain.StaffMember, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			// Legacy v0 stored bare name strings.
			out = append(out, domain.StaffMember{
				ID:   uuid.NewString(),
				Name: domain.NormalizeDisplayName(v),
			})
			migrated = true
		case map[string]any:
			member, changed := normalizeStaffEntry(v)
			migrated = migrated || changed
			out = append(out, member)
		default:
			migrated = true
		}
	}
	return out, migrated
}

func normalizeStaffEntry(obj map[string]any) (domain.StaffMember, bool) {
	migrated := false

	member := domain.StaffMember{
		ID:       stringField(obj, "id", "", &migrated),
		Name:     stringField(obj, "name", legacyNameKey, &migrated),
		WhatsApp: stringField(obj, "whatsapp", "", &migrated),
		Phone:    stringField(obj, "phone", legacyPhoneKey, &migrated),
		Email:    stringField(obj, "email", "", &migrated),
		Notes:    stringField(obj, "notes", legacyNotesKey, &migrated),
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
		migrated = true
	}
	// Name normalization is reapplied unconditionally, not only on
	// legacy input.
	if normalized := domain.NormalizeDisplayName(member.Name); normalized != member.Name {
		member.Name = normalized
		migrated = true
	}
	return member, migrated
}

func stringField(obj map[string]any, key, alias string, migrated *bool) string {
	raw, ok := obj[key]
	if !ok && alias != "" {
		if raw, ok = obj[alias]; ok {
			*migrated = true
		}
	}
	if !ok || raw == nil {
		return ""
	}
	s, isString := raw.(string)
	if !isString {
		*migrated = true
		return ""
	}
	return s
}

func normalizeSchedule(raw any, now time.Time) (domain.Schedule, bool) {
	migrated := false
	obj, ok := raw.(map[string]any)
	if !ok {
		obj = map[string]any{}
		migrated = true
	}

	sched := domain.Schedule{
		DayOwnerIDs: map[string][]string{},
		DayTimes:    map[string]map[string]domain.TimeWindow{},
	}

	owners, hasOwners := obj["dayOwnerIds"]
	if !hasOwners {
		// Legacy single-owner mapping: one id per day.
		if legacy, ok := obj[legacySingleOwner].(map[string]any); ok {
			for key, v := range legacy {
				day, valid := domain.ParseDayKey(key)
				if !valid {
					continue
				}
				if id, ok := v.(string); ok && id != "" {
					sched.DayOwnerIDs[domain.DayKey(day)] = []string{id}
				}
			}
			migrated = true
		} else {
			migrated = true
		}
	} else {
		changed := normalizeDayOwners(owners, sched.DayOwnerIDs)
		migrated = migrated || changed
		if _, stale := obj[legacySingleOwner]; stale {
			migrated = true
		}
	}

	changed := normalizeDayTimes(obj["dayTimes"], sched.DayTimes)
	migrated = migrated || changed

	dateFilled := false
	month, monthOK := intField(obj, "month", &migrated)
	if !monthOK || month < 1 || month > 12 {
		month = int(now.Month())
		migrated = true
		dateFilled = true
	}
	year, yearOK := intField(obj, "year", &migrated)
	if !yearOK || year < 1000 || year > 9999 {
		year = now.Year()
		migrated = true
		dateFilled = true
	}
	sched.Month = month
	sched.Year = year

	label, _ := obj["monthYear"].(string)
	if label == "" || dateFilled {
		// Recompute whenever the label is missing or month/year were
		// just filled, so the derived label can not go stale.
		rendered := domain.MonthYearLabel(month, year)
		if rendered != label {
			migrated = true
		}
		label = rendered
	}
	sched.MonthYear = label

	return sched, migrated
}

func intField(obj map[string]any, key string, migrated *bool) (int, bool) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if n := int(v); float64(n) == v {
			return n, true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*migrated = true
			return n, true
		}
	}
	*migrated = true
	return 0, false
}

func normalizeDayOwners(raw any, out map[string][]string) bool {
	obj, ok := raw.(map[string]any)
	if !ok {
		return true
	}
	migrated := false
	for key, v := range obj {
		day, valid := domain.ParseDayKey(key)
		if !valid {
			migrated = true
			continue
		}
		canonical := domain.DayKey(day)
		if canonical != key {
			migrated = true
		}

		var ids []string
		switch value := v.(type) {
		case []any:
			for _, entry := range value {
				id, isString := entry.(string)
				if !isString || id == "" {
					migrated = true
					continue
				}
				ids = append(ids, id)
			}
		case string:
			// A bare scalar becomes a one-element sequence.
			migrated = true
			if value != "" {
				ids = []string{value}
			}
		case nil:
			migrated = true
		default:
			migrated = true
		}

		if len(ids) == 0 {
			// Empty sequences collapse to absence.
			if _, isList := v.([]any); isList {
				migrated = true
			}
			continue
		}
		if existing, collision := out[canonical]; collision {
			migrated = true
			ids = append(existing, ids...)
		}
		out[canonical] = ids
	}
	return migrated
}

func normalizeDayTimes(raw any, out map[string]map[string]domain.TimeWindow) bool {
	if raw == nil {
		return false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return true
	}
	migrated := false
	for key, v := range obj {
		day, valid := domain.ParseDayKey(key)
		if !valid {
			migrated = true
			continue
		}
		canonical := domain.DayKey(day)
		if canonical != key {
			migrated = true
		}

		byOwner, ok := v.(map[string]any)
		if !ok {
			migrated = true
			continue
		}
		windows := out[canonical]
		if windows == nil {
			windows = map[string]domain.TimeWindow{}
		}
		for id, rawWindow := range byOwner {
			if id == "" {
				migrated = true
				continue
			}
			windowObj, ok := rawWindow.(map[string]any)
			if !ok {
				migrated = true
				continue
			}
			windows[id] = domain.TimeWindow{
				Start: stringField(windowObj, "start", legacyStartKey, &migrated),
				End:   stringField(windowObj, "end", legacyEndKey, &migrated),
			}
		}
		if len(windows) == 0 {
			migrated = true
			continue
		}
		out[canonical] = windows
	}
	return migrated
}

// repairOwnerReferences rewrites owner entries that hold a staff name
// instead of an id (a legacy authoring mistake), then drops whatever
// still resolves to no known staff member.
func repairOwnerReferences(doc *domain.Document, migrated *bool) {
	idSet := make(map[string]struct{}, len(doc.Staff))
	nameToID := make(map[string]string, len(doc.Staff))
	for _, member := range doc.Staff {
		idSet[member.ID] = struct{}{}
		nameToID[domain.NormalizeDisplayName(member.Name)] = member.ID
	}

	for day, ids := range doc.Schedule.DayOwnerIDs {
		kept := ids[:0]
		for _, id := range ids {
			if _, known := idSet[id]; known {
				kept = append(kept, id)
				continue
			}
			if resolved, byName := nameToID[domain.NormalizeDisplayName(id)]; byName {
				kept = append(kept, resolved)
				*migrated = true
				continue
			}
			*migrated = true
		}
		if len(kept) == 0 {
			delete(doc.Schedule.DayOwnerIDs, day)
			continue
		}
		doc.Schedule.DayOwnerIDs[day] = kept
	}
}

// pruneOrphanWindows drops time windows for owners not assigned to that
// day; a window may only exist alongside its assignment.
func pruneOrphanWindows(doc *domain.Document, migrated *bool) {
	for day, windows := range doc.Schedule.DayTimes {
		owners := doc.Schedule.DayOwnerIDs[day]
		for id := range windows {
			if !containsID(owners, id) {
				delete(windows, id)
				*migrated = true
			}
		}
		if len(windows) == 0 {
			delete(doc.Schedule.DayTimes, day)
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func normalizeSupportContact(raw any) (domain.SupportContact, bool) {
	migrated := false
	obj, ok := raw.(map[string]any)
	if !ok {
		obj = map[string]any{}
		migrated = true
	}

	pick := func(key, alias, fallback string) string {
		raw := stringField(obj, key, alias, &migrated)
		value := strings.TrimSpace(raw)
		if value == "" {
			// An empty string never overrides the field default.
			value = fallback
		}
		if value != raw {
			migrated = true
		}
		return value
	}

	contact := domain.SupportContact{
		Name:     pick("name", legacyNameKey, domain.SupportContactDefaults.Name),
		WhatsApp: pick("whatsapp", "", domain.SupportContactDefaults.WhatsApp),
		Phone:    pick("phone", legacyPhoneKey, domain.SupportContactDefaults.Phone),
		Email:    pick("email", "", domain.SupportContactDefaults.Email),
		Notes:    pick("notes", legacyNotesKey, domain.SupportContactDefaults.Notes),
	}
	return contact, migrated
}

func normalizeUpdatedAt(root map[string]any) (*time.Time, bool) {
	raw, present := root["updatedAt"]
	if !present {
		// Absent key means "never written"; null records that
		// explicitly.
		return nil, true
	}
	if raw == nil {
		return nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts, false
		}
	}
	return nil, true
}
