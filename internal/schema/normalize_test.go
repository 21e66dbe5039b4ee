package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/oncall-roster/internal/domain"
)

var testNow = time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)

func normalizeBytes(t *testing.T, body string) (*domain.Document, bool) {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return NormalizeAt(raw, testNow)
}

func TestNormalizeCanonicalDocumentUnchanged(t *testing.T) {
	body := `{
		"staff": [{"id": "a1", "name": "ALICE", "phone": "+55 11 99999-0000"}],
		"schedule": {
			"month": 8,
			"year": 2026,
			"monthYear": "AUGUST/2026",
			"dayOwnerIds": {"5": ["a1"]},
			"dayTimes": {"5": {"a1": {"start": "08:00", "end": "17:00"}}}
		},
		"supportContact": {
			"name": "SUPERVISOR",
			"whatsapp": "",
			"phone": "",
			"email": "",
			"notes": "Escalation contact when no on-call owner answers."
		},
		"updatedAt": "2026-08-01T09:30:00Z"
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.False(t, migrated)
	assert.Equal(t, []string{"a1"}, doc.Schedule.DayOwnerIDs["5"])
	assert.Equal(t, domain.TimeWindow{Start: "08:00", End: "17:00"}, doc.Schedule.DayTimes["5"]["a1"])
	require.NotNil(t, doc.UpdatedAt)
	assert.Equal(t, time.Date(2026, time.August, 1, 9, 30, 0, 0, time.UTC), doc.UpdatedAt.UTC())
}

func TestNormalizeIsIdempotent(t *testing.T) {
	// A document needing every repair, round-tripped through the
	// serializer, must normalize a second time with no changes.
	body := `{
		"colaboradores": ["ana maria", {"nome": "bruno", "telefone": "123", "obs": "nights"}],
		"escala": {
			"month": "8",
			"dayOwnerId": {"05": "ana maria"},
			"dayTimes": {"05": {"ana maria": {"inicio": "22:00", "fim": "06:00"}}}
		},
		"apoioPedro": {"nome": "pedro"}
	}`

	first, migrated := normalizeBytes(t, body)
	require.True(t, migrated)

	serialized, err := json.Marshal(first)
	require.NoError(t, err)

	var raw any
	require.NoError(t, json.Unmarshal(serialized, &raw))
	second, migrated := NormalizeAt(raw, testNow)
	assert.False(t, migrated)
	assert.Equal(t, first, second)
}

func TestNormalizeLegacyPortugueseKeys(t *testing.T) {
	body := `{
		"colaboradores": [{"id": "a1", "nome": "ana", "telefone": "123", "obs": "prefers mornings"}],
		"escala": {"month": 8, "year": 2026, "monthYear": "AUGUST/2026", "dayOwnerIds": {}, "dayTimes": {}},
		"apoioPedro": {"nome": "pedro", "telefone": "456"},
		"updatedAt": null
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	require.Len(t, doc.Staff, 1)
	assert.Equal(t, "a1", doc.Staff[0].ID)
	assert.Equal(t, "ANA", doc.Staff[0].Name)
	assert.Equal(t, "123", doc.Staff[0].Phone)
	assert.Equal(t, "prefers mornings", doc.Staff[0].Notes)

	assert.Equal(t, "pedro", doc.SupportContact.Name)
	assert.Equal(t, "456", doc.SupportContact.Phone)
}

func TestNormalizeBareNameStaffList(t *testing.T) {
	doc, migrated := normalizeBytes(t, `{"staff": ["  joão   silva ", "maria"]}`)
	assert.True(t, migrated)

	require.Len(t, doc.Staff, 2)
	assert.Equal(t, "JOÃO SILVA", doc.Staff[0].Name)
	assert.Equal(t, "MARIA", doc.Staff[1].Name)
	assert.NotEmpty(t, doc.Staff[0].ID)
	assert.NotEmpty(t, doc.Staff[1].ID)
	assert.NotEqual(t, doc.Staff[0].ID, doc.Staff[1].ID)
}

func TestNormalizeSingleOwnerLegacySchedule(t *testing.T) {
	body := `{
		"staff": [{"id": "x1", "name": "ALICE"}],
		"schedule": {
			"month": 8, "year": 2026, "monthYear": "AUGUST/2026",
			"dayOwnerId": {"05": "x1", "bogus": "x1", "7": ""}
		}
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	assert.Equal(t, map[string][]string{"5": {"x1"}}, doc.Schedule.DayOwnerIDs)
}

func TestNormalizeDayKeyCanonicalization(t *testing.T) {
	body := `{
		"staff": [{"id": "x1", "name": "ALICE"}],
		"schedule": {
			"month": 8, "year": 2026, "monthYear": "AUGUST/2026",
			"dayOwnerIds": {"07": ["x1"], "NaN": ["x1"], "42": ["x1"], "3": "x1", "9": []},
			"dayTimes": {}
		}
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	// Zero-padded keys are re-keyed, junk and out-of-range keys are
	// dropped, scalars become one-element lists, empty lists collapse.
	assert.Equal(t, map[string][]string{"7": {"x1"}, "3": {"x1"}}, doc.Schedule.DayOwnerIDs)
}

func TestNormalizeRepairsNameBasedOwnerReferences(t *testing.T) {
	body := `{
		"staff": [{"id": "x1", "name": "ANA MARIA"}],
		"schedule": {
			"month": 8, "year": 2026, "monthYear": "AUGUST/2026",
			"dayOwnerIds": {"5": ["ana  maria"], "6": ["ghost-id"]},
			"dayTimes": {}
		}
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	assert.Equal(t, []string{"x1"}, doc.Schedule.DayOwnerIDs["5"])
	_, exists := doc.Schedule.DayOwnerIDs["6"]
	assert.False(t, exists, "days left with no resolvable owner disappear")
}

func TestNormalizePrunesOrphanWindows(t *testing.T) {
	body := `{
		"staff": [{"id": "x1", "name": "ALICE"}, {"id": "x2", "name": "BOB"}],
		"schedule": {
			"month": 8, "year": 2026, "monthYear": "AUGUST/2026",
			"dayOwnerIds": {"5": ["x1"]},
			"dayTimes": {
				"5": {"x1": {"start": "08:00", "end": "17:00"}, "x2": {"start": "18:00", "end": "22:00"}},
				"6": {"x2": {"start": "08:00", "end": "17:00"}}
			}
		}
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	// A window survives only for an owner assigned to that same day.
	assert.Equal(t, map[string]domain.TimeWindow{"x1": {Start: "08:00", End: "17:00"}}, doc.Schedule.DayTimes["5"])
	_, exists := doc.Schedule.DayTimes["6"]
	assert.False(t, exists)
}

func TestNormalizeSupportContactFieldDefaults(t *testing.T) {
	body := `{
		"staff": [],
		"schedule": {"month": 8, "year": 2026, "monthYear": "AUGUST/2026", "dayOwnerIds": {}, "dayTimes": {}},
		"supportContact": {"name": "", "whatsapp": "+55 11 98888-0000", "phone": "", "email": "", "notes": ""},
		"updatedAt": null
	}`

	doc, migrated := normalizeBytes(t, body)
	assert.True(t, migrated)

	// Empty fields fall back per field; filled fields survive.
	assert.Equal(t, domain.SupportContactDefaults.Name, doc.SupportContact.Name)
	assert.Equal(t, "+55 11 98888-0000", doc.SupportContact.WhatsApp)
	assert.Equal(t, domain.SupportContactDefaults.Notes, doc.SupportContact.Notes)
}

func TestNormalizeMonthYearRecompute(t *testing.T) {
	// Missing month and year are filled from the clock, and the label is
	// recomputed rather than trusted.
	doc, migrated := normalizeBytes(t, `{"schedule": {"monthYear": "STALE/1999"}}`)
	assert.True(t, migrated)
	assert.Equal(t, 8, doc.Schedule.Month)
	assert.Equal(t, 2026, doc.Schedule.Year)
	assert.Equal(t, "AUGUST/2026", doc.Schedule.MonthYear)

	// A present, non-empty label with valid month/year is left alone.
	doc, migrated = normalizeBytes(t, `{
		"staff": [],
		"schedule": {"month": 2, "year": 2025, "monthYear": "fevereiro/2025", "dayOwnerIds": {}, "dayTimes": {}},
		"supportContact": {"name": "SUPERVISOR", "whatsapp": "", "phone": "", "email": "", "notes": "Escalation contact when no on-call owner answers."},
		"updatedAt": null
	}`)
	assert.False(t, migrated)
	assert.Equal(t, "fevereiro/2025", doc.Schedule.MonthYear)
}

func TestNormalizeUpdatedAt(t *testing.T) {
	doc, migrated := normalizeBytes(t, `{"staff": [], "schedule": {"month": 8, "year": 2026, "monthYear": "AUGUST/2026", "dayOwnerIds": {}, "dayTimes": {}}, "supportContact": {"name": "SUPERVISOR", "whatsapp": "", "phone": "", "email": "", "notes": "Escalation contact when no on-call owner answers."}}`)
	assert.True(t, migrated, "absent updatedAt is recorded as null")
	assert.Nil(t, doc.UpdatedAt)

	doc, migrated = normalizeBytes(t, `{"updatedAt": "not a timestamp"}`)
	assert.True(t, migrated)
	assert.Nil(t, doc.UpdatedAt)

	doc, migrated = normalizeBytes(t, `{"updatedAt": 1700000000}`)
	assert.True(t, migrated)
	assert.Nil(t, doc.UpdatedAt)
}

func TestNormalizeGarbageInput(t *testing.T) {
	for _, raw := range []any{nil, "not a document", 42.0, []any{"x"}} {
		doc, migrated := NormalizeAt(raw, testNow)
		assert.True(t, migrated)
		assert.Empty(t, doc.Staff)
		assert.Equal(t, 8, doc.Schedule.Month)
		assert.Equal(t, domain.SupportContactDefaults, doc.SupportContact)
	}
}

func TestNormalizeJSONMalformed(t *testing.T) {
	doc, migrated := NormalizeJSON([]byte(`{"staff": [`))
	assert.True(t, migrated)
	assert.NotNil(t, doc)
	assert.Empty(t, doc.Staff)
}

func TestNormalizeNumericStringMonth(t *testing.T) {
	doc, migrated := normalizeBytes(t, `{"schedule": {"month": "11", "year": 2025, "monthYear": "NOVEMBER/2025", "dayOwnerIds": {}, "dayTimes": {}}}`)
	assert.True(t, migrated)
	assert.Equal(t, 11, doc.Schedule.Month)
	assert.Equal(t, 2025, doc.Schedule.Year)
	assert.Equal(t, "NOVEMBER/2025", doc.Schedule.MonthYear)
}
