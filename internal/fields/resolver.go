// Package fields resolves the addressable tags of list properties. The
// tagging of custom list fields is not stable across Bitrix deployments:
// the same logical property may answer to its numeric FIELD_ID form
// (PROPERTY_204), to a code-derived form (PROPERTY_SHIP_DATE), or appear in
// metadata under its display name only. The resolver turns configured
// fallback tags plus live metadata into ordered candidate tag sets.
package fields

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
)

// TagList is an ordered, deduplicated set of property tags. Earlier entries
// are higher-priority candidates.
type TagList struct {
	tags []string
	seen map[string]struct{}
}

func newTagList(tags ...string) *TagList {
	l := &TagList{seen: make(map[string]struct{})}
	for _, t := range tags {
		l.Add(t)
	}
	return l
}

// Add appends a tag unless empty or already present.
func (l *TagList) Add(tag string) {
	if tag == "" {
		return
	}
	if _, ok := l.seen[tag]; ok {
		return
	}
	l.seen[tag] = struct{}{}
	l.tags = append(l.tags, tag)
}

// Tags returns the candidate tags in priority order.
func (l *TagList) Tags() []string {
	return l.tags
}

// Resolver computes candidate tag sets for the search-key and date
// properties of one list.
type Resolver struct {
	client    bitrix.Client
	listID    int
	searchTag string
	valueTag  string
	log       *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a Resolver. searchTag and valueTag are the configured
// fallback tags; they stay first in every resolved set so behavior is
// correct even when metadata is absent or the fetch fails.
func NewResolver(client bitrix.Client, listID int, searchTag, valueTag string, opts ...Option) *Resolver {
	r := &Resolver{
		client:    client,
		listID:    listID,
		searchTag: searchTag,
		valueTag:  valueTag,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the candidate tag sets for the search-key property and
// the date property. A metadata fetch failure degrades to the fallback
// tags alone; it is logged, never fatal.
func (r *Resolver) Resolve(ctx context.Context) (search, value *TagList) {
	search = newTagList(r.searchTag)
	value = newTagList(r.valueTag)

	metas, err := r.client.ListFields(ctx, r.listID)
	if err != nil {
		r.log.Warn("list field metadata unavailable, using fallback tags",
			"list_id", r.listID,
			"error", err,
		)
		return search, value
	}

	for _, meta := range metas {
		if matchesIdent(meta, r.searchTag) {
			search.Add(meta.Tag)
			search.Add(derivedTag(meta))
		}
		if matchesIdent(meta, r.valueTag) || isDateType(meta.Type) {
			value.Add(meta.Tag)
			value.Add(derivedTag(meta))
		}
	}
	return search, value
}

// Required returns the list's required fields excluding the built-in name
// field. Updates that drop a required property are rejected by the remote,
// so the maintenance job resubmits all of them.
func (r *Resolver) Required(ctx context.Context) ([]bitrix.FieldMeta, error) {
	metas, err := r.client.ListFields(ctx, r.listID)
	if err != nil {
		return nil, err
	}

	var out []bitrix.FieldMeta
	for _, meta := range metas {
		if !meta.Required || meta.Tag == "NAME" {
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

// matchesIdent reports whether a field is addressable by the given
// identifier through any of its known names.
func matchesIdent(meta bitrix.FieldMeta, ident string) bool {
	if ident == "" {
		return false
	}
	candidates := []string{meta.Tag, meta.Code, meta.Name, derivedTag(meta)}
	for _, c := range candidates {
		if c != "" && strings.EqualFold(c, ident) {
			return true
		}
	}
	return false
}

// derivedTag builds the PROPERTY_<code> form of a field. Some deployments
// already store codes with the prefix, which must not be doubled.
func derivedTag(meta bitrix.FieldMeta) string {
	if meta.Code == "" {
		return ""
	}
	code := strings.ToUpper(meta.Code)
	if strings.HasPrefix(code, "PROPERTY_") {
		return code
	}
	return "PROPERTY_" + code
}

func isDateType(t string) bool {
	switch strings.ToUpper(t) {
	case "S:DATE", "S:DATETIME", "DATE", "DATETIME":
		return true
	}
	return false
}
