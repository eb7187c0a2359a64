package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

var moscow = time.FixedZone("MSK", 3*60*60)

func rollConfig(ids ...string) engine.RollConfig {
	return engine.RollConfig{
		ElementIDs: ids,
		DateTag:    testDateTag,
		Location:   moscow,
	}
}

func TestRollDatesWritesMonthEnd(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 2, 10, 0, 30, 0, 0, time.UTC)
	var gotUpdate map[string]any

	client := &fakeClient{
		listFields: func(_ context.Context, _ int) ([]bitrix.FieldMeta, error) {
			return []bitrix.FieldMeta{
				{Tag: "NAME", Name: "Название", Required: true},
				{Tag: "PROPERTY_206", Code: "SUPPLIER", Name: "Поставщик", Required: true},
				{Tag: testDateTag, Code: "SHIP_DATE", Type: "S:Date"},
			}, nil
		},
		listElements: func(_ context.Context, q bitrix.ElementQuery) ([]bitrix.ListElement, error) {
			assert.Equal(t, "ID", q.FilterTag)
			assert.Equal(t, "12", q.FilterValue)
			return []bitrix.ListElement{{
				"ID":                 "12",
				"NAME":               "Импорт",
				"PROPERTY_206_VALUE": "ООО Ромашка",
				testDateTag:          map[string]any{"1617": "31.01.2025"},
			}}, nil
		},
		listElementUpdate: func(_ context.Context, listID int, elementID string, fields map[string]any) (bool, error) {
			assert.Equal(t, testListID, listID)
			assert.Equal(t, "12", elementID)
			gotUpdate = fields
			return true, nil
		},
	}

	eng := newTestEngine(client, rollConfig("12"), now)
	res, err := eng.RollDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "28.02.2025", res.Value)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Failed)

	require.NotNil(t, gotUpdate)
	assert.Equal(t, "Импорт", gotUpdate["NAME"])
	assert.Equal(t, "ООО Ромашка", gotUpdate["PROPERTY_206"])
	assert.Equal(t, "28.02.2025", gotUpdate[testDateTag])

	require.NotNil(t, eng.LastRoll())
	assert.Equal(t, "28.02.2025", eng.LastRoll().Value)
}

func TestRollDatesElementFailureIsTallied(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

	client := &fakeClient{
		listElements: func(_ context.Context, q bitrix.ElementQuery) ([]bitrix.ListElement, error) {
			return []bitrix.ListElement{{"ID": q.FilterValue, "NAME": "Элемент " + q.FilterValue}}, nil
		},
		listElementUpdate: func(_ context.Context, _ int, elementID string, _ map[string]any) (bool, error) {
			if elementID == "12" {
				return false, errors.New("write rejected")
			}
			return true, nil
		},
	}

	res, err := newTestEngine(client, rollConfig("12", "13"), now).RollDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "31.08.2025", res.Value)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Elements, 2)
	assert.False(t, res.Elements[0].OK)
	assert.Contains(t, res.Elements[0].Error, "write rejected")
	assert.True(t, res.Elements[1].OK)
}

func TestRollDatesMissingElement(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

	client := &fakeClient{
		listElements: func(_ context.Context, _ bitrix.ElementQuery) ([]bitrix.ListElement, error) {
			return nil, nil
		},
	}

	res, err := newTestEngine(client, rollConfig("99"), now).RollDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Elements[0].Error, "element not found")
}

func TestRollDatesNoElementsConfigured(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

	client := &fakeClient{
		listElementUpdate: func(_ context.Context, _ int, _ string, _ map[string]any) (bool, error) {
			t.Fatal("no update expected")
			return false, nil
		},
	}

	res, err := newTestEngine(client, rollConfig(), now).RollDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "31.08.2025", res.Value)
	assert.Equal(t, 0, res.Updated)
	assert.Empty(t, res.Elements)
}

func TestRollDatesRequiredDiscoveryDegrades(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	var gotUpdate map[string]any

	client := &fakeClient{
		listFields: func(_ context.Context, _ int) ([]bitrix.FieldMeta, error) {
			return nil, errors.New("metadata unavailable")
		},
		listElements: func(_ context.Context, _ bitrix.ElementQuery) ([]bitrix.ListElement, error) {
			return []bitrix.ListElement{{"ID": "12", "NAME": "Импорт"}}, nil
		},
		listElementUpdate: func(_ context.Context, _ int, _ string, fields map[string]any) (bool, error) {
			gotUpdate = fields
			return true, nil
		},
	}

	res, err := newTestEngine(client, rollConfig("12"), now).RollDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	require.NotNil(t, gotUpdate)
	assert.Equal(t, map[string]any{
		"NAME":      "Импорт",
		testDateTag: "31.08.2025",
	}, gotUpdate)
}

func TestRollDatesTimezoneShiftsMonthBoundary(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on Jan 31 is already Feb 1 in Moscow, so the roll targets
	// the end of February.
	now := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)

	client := &fakeClient{
		listElements: func(_ context.Context, _ bitrix.ElementQuery) ([]bitrix.ListElement, error) {
			return []bitrix.ListElement{{"ID": "12", "NAME": "Импорт"}}, nil
		},
		listElementUpdate: func(_ context.Context, _ int, _ string, _ map[string]any) (bool, error) {
			return true, nil
		},
	}

	res, err := newTestEngine(client, rollConfig("12"), now).RollDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "28.02.2025", res.Value)
}
