// Package match looks up the date associated with a deal's product in the
// lookup list, tolerating the key and value shape variance of the remote.
package match

import (
	"context"
	"log/slog"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/fields"
	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

// Trace records what one product lookup actually did, for debug responses.
type Trace struct {
	ProductID    string       `json:"product_id"`
	SearchValues []string     `json:"search_values"`
	Queried      int          `json:"queried"`
	Checked      int          `json:"checked"`
	Matches      []TraceMatch `json:"matches,omitempty"`
}

// TraceMatch is one extraction attempt against a matched element.
type TraceMatch struct {
	ElementID  string `json:"element_id"`
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	Raw        any    `json:"raw"`
	Flat       string `json:"flat"`
	Normalized string `json:"normalized"`
}

// Matcher resolves a product identifier to a normalized date via the
// lookup list.
type Matcher struct {
	client   bitrix.Client
	resolver *fields.Resolver
	listID   int
	log      *slog.Logger
}

// Option configures the Matcher.
type Option func(*Matcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		m.log = l
	}
}

// New creates a Matcher for the given list.
func New(client bitrix.Client, resolver *fields.Resolver, listID int, opts ...Option) *Matcher {
	m := &Matcher{
		client:   client,
		resolver: resolver,
		listID:   listID,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the canonical date for a product, or "" when the list has
// no usable entry — an expected outcome, not an error. The search value
// fallback order is product id, then the product's external id, then its
// external code; the latter two are fetched only when the id finds no
// element. Errors are returned only for remote failures worth surfacing
// (the caller decides whether they abort the run).
func (m *Matcher) Match(ctx context.Context, productID string) (string, *Trace, error) {
	trace := &Trace{ProductID: productID}
	searchTags, valueTags := m.resolver.Resolve(ctx)

	date, found, err := m.tryValue(ctx, productID, searchTags, valueTags, trace)
	if err != nil || found {
		return date, trace, err
	}

	// The id found nothing; the list may key entries by catalog external
	// id or code instead.
	product, err := m.client.ProductGet(ctx, productID)
	if err != nil {
		if bitrix.IsTimeout(err) {
			return "", trace, err
		}
		m.log.Debug("product info lookup failed",
			"product_id", productID,
			"error", err,
		)
		return "", trace, nil
	}

	for _, alt := range []string{product.XMLID, product.Code} {
		if alt == "" || alt == productID {
			continue
		}
		date, found, err = m.tryValue(ctx, alt, searchTags, valueTags, trace)
		if err != nil || found {
			return date, trace, err
		}
	}
	return "", trace, nil
}

// tryValue probes each candidate search tag with one value, stopping at the
// first tag that yields elements. found reports that elements were obtained
// (even when none of them carried a usable date).
func (m *Matcher) tryValue(
	ctx context.Context,
	value string,
	searchTags, valueTags *fields.TagList,
	trace *Trace,
) (string, bool, error) {
	trace.SearchValues = append(trace.SearchValues, value)
	selects := selectTags(searchTags, valueTags)

	for _, tag := range searchTags.Tags() {
		trace.Queried++
		elements, err := m.client.ListElements(ctx, bitrix.ElementQuery{
			ListID:      m.listID,
			FilterTag:   tag,
			FilterValue: value,
			Select:      selects,
		})
		if err != nil {
			if bitrix.IsTimeout(err) {
				return "", false, err
			}
			m.log.Debug("list query failed",
				"search_tag", tag,
				"value", value,
				"error", err,
			)
			continue
		}
		if len(elements) == 0 {
			continue
		}

		return m.extract(elements, tag, value, valueTags, trace), true, nil
	}
	return "", false, nil
}

// extract pulls the first normalizable date out of the elements whose
// search property confirms the match.
func (m *Matcher) extract(
	elements []bitrix.ListElement,
	searchTag, value string,
	valueTags *fields.TagList,
	trace *Trace,
) string {
	for _, el := range elements {
		trace.Checked++
		if !propEquals(el, searchTag, value) {
			continue
		}

		for _, vt := range valueTags.Tags() {
			// Responses may duplicate the property under a raw and a
			// resolved key; the resolved one is authoritative when present.
			for _, key := range []string{vt + "_VALUE", vt} {
				raw := el.Prop(key)
				if raw == nil {
					continue
				}
				flat := bxval.Flatten(raw)
				norm := bxval.NormalizeDate(flat)
				trace.Matches = append(trace.Matches, TraceMatch{
					ElementID:  el.ID(),
					Name:       el.Name(),
					Tag:        key,
					Raw:        raw,
					Flat:       flat,
					Normalized: norm,
				})
				if norm != "" {
					return norm
				}
			}
		}
	}
	return ""
}

// propEquals checks that the element's own search property flattens to the
// searched value, guarding against remote filters that matched loosely.
func propEquals(el bitrix.ListElement, tag, value string) bool {
	raw := el.Prop(tag + "_VALUE")
	if raw == nil {
		raw = el.Prop(tag)
	}
	return bxval.Flatten(raw) == value
}

func selectTags(searchTags, valueTags *fields.TagList) []string {
	var out []string
	for _, t := range append(append([]string{}, searchTags.Tags()...), valueTags.Tags()...) {
		out = append(out, t, t+"_VALUE")
	}
	return out
}
