package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/metrics"
	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

// RollResult is the tally of one month-end maintenance run.
type RollResult struct {
	Value    string              `json:"value"`
	Updated  int                 `json:"updated"`
	Failed   int                 `json:"failed"`
	RanAt    time.Time           `json:"ran_at"`
	Elements []RollElementResult `json:"elements,omitempty"`
}

// RollElementResult is the outcome for a single list element.
type RollElementResult struct {
	ElementID string `json:"element_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// RollDates writes the last calendar day of the current month (in the
// configured civil timezone, DD.MM.YYYY wire form) into the date property
// of every configured list element. The remote rejects updates that drop
// required fields, so each element's current required values are read back
// and resubmitted alongside the new date. One element's failure is tallied
// and never aborts the batch.
func (e *Engine) RollDates(ctx context.Context) (*RollResult, error) {
	metrics.RollRunsTotal.Inc()

	now := e.nowFunc().In(e.roll.Location)
	result := &RollResult{
		Value: bxval.LastDayOfMonth(now).Format(bxval.RUDateLayout),
		RanAt: now,
	}
	defer e.setLastRoll(result)

	if len(e.roll.ElementIDs) == 0 {
		e.log.Warn("month-end roll has no target elements configured")
		return result, nil
	}

	required, err := e.resolver.Required(ctx)
	if err != nil {
		// Degraded mode: updates carry name and date only. Deployments
		// without other required fields accept this.
		e.log.Warn("required-field discovery failed",
			"list_id", e.listID,
			"error", err,
		)
		required = nil
	}

	for _, id := range e.roll.ElementIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if err := e.rollElement(ctx, id, result.Value, required); err != nil {
			result.Failed++
			metrics.RollElementsFailed.Inc()
			e.log.Error("month-end roll failed for element",
				"element_id", id,
				"error", err,
			)
			result.Elements = append(result.Elements, RollElementResult{
				ElementID: id,
				Error:     err.Error(),
			})
			continue
		}

		result.Updated++
		metrics.RollElementsUpdated.Inc()
		e.log.Info("month-end roll updated element",
			"element_id", id,
			"value", result.Value,
		)
		result.Elements = append(result.Elements, RollElementResult{ElementID: id, OK: true})
	}
	return result, nil
}

func (e *Engine) rollElement(ctx context.Context, elementID, value string, required []bitrix.FieldMeta) error {
	selects := []string{e.roll.DateTag}
	for _, meta := range required {
		if tag := meta.PropertyTag(); tag != "" {
			selects = append(selects, tag, tag+"_VALUE")
		}
	}

	elements, err := e.client.ListElements(ctx, bitrix.ElementQuery{
		ListID:      e.listID,
		FilterTag:   "ID",
		FilterValue: elementID,
		Select:      selects,
	})
	if err != nil {
		return fmt.Errorf("reading element: %w", err)
	}
	if len(elements) == 0 {
		return errors.New("element not found")
	}
	el := elements[0]

	update := map[string]any{"NAME": elementName(el, elementID)}
	for _, meta := range required {
		tag := meta.PropertyTag()
		if tag == "" || tag == e.roll.DateTag {
			continue
		}
		if current := currentFieldValue(el, meta); current != "" {
			update[tag] = current
		}
	}
	update[e.roll.DateTag] = value

	ok, err := e.client.ListElementUpdate(ctx, e.listID, elementID, update)
	if err != nil {
		return fmt.Errorf("writing element: %w", err)
	}
	if !ok {
		return errors.New("remote did not confirm the update")
	}
	return nil
}

func elementName(el bitrix.ListElement, elementID string) string {
	if name := el.Name(); name != "" {
		return name
	}
	return "Element " + elementID
}

// currentFieldValue reads a required field's present value off the element,
// trying the metadata tag first and falling back to a lookup by display
// name for deployments whose metadata mislabels the tag.
func currentFieldValue(el bitrix.ListElement, meta bitrix.FieldMeta) string {
	tag := meta.PropertyTag()
	for _, key := range []string{tag + "_VALUE", tag} {
		if v := bxval.Flatten(el.Prop(key)); v != "" {
			return v
		}
	}
	if meta.Name != "" {
		if v := bxval.Flatten(el.Prop(meta.Name)); v != "" {
			return v
		}
	}
	return ""
}
