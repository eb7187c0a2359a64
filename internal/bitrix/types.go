package bitrix

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

// ProductRow is one line item of a deal. Only the product reference is
// relevant to synchronization.
type ProductRow struct {
	ProductID string
}

// Product carries the catalog identifiers a product may be listed under.
type Product struct {
	ID    string
	XMLID string
	Code  string
}

// Deal is a CRM deal record. Fields holds the raw field map as returned by
// crm.deal.get; the modification metadata used by the write-guard policy is
// parsed out.
type Deal struct {
	ID           int64
	Fields       map[string]any
	ModifiedByID int64
	ModifiedAt   time.Time
}

// Field returns the raw value of a named deal field, or nil.
func (d *Deal) Field(name string) any {
	if d == nil || d.Fields == nil {
		return nil
	}
	return d.Fields[name]
}

// FieldString returns the flattened scalar form of a named deal field.
func (d *Deal) FieldString(name string) string {
	return bxval.Flatten(d.Field(name))
}

func dealFromFields(id int64, fields map[string]any) *Deal {
	d := &Deal{ID: id, Fields: fields}
	if s := bxval.Flatten(fields["MODIFY_BY_ID"]); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			d.ModifiedByID = n
		}
	}
	if s := bxval.Flatten(fields["DATE_MODIFY"]); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			d.ModifiedAt = t
		}
	}
	return d
}

// ListElement is one record of a list container. Property tags and value
// shapes are deployment-specific, so the raw map is kept and callers
// flatten what they need.
type ListElement map[string]any

// ID returns the element identifier.
func (e ListElement) ID() string {
	return bxval.Flatten(e["ID"])
}

// Name returns the element display name.
func (e ListElement) Name() string {
	return bxval.Flatten(e["NAME"])
}

// Prop returns the raw value stored under a property tag, or nil.
func (e ListElement) Prop(tag string) any {
	return e[tag]
}

// FieldMeta describes one property of a list container.
type FieldMeta struct {
	Tag      string
	Code     string
	Name     string
	Type     string
	Required bool
	Multiple bool
}

// PropertyTag returns the addressable tag of the field: the raw tag when it
// already carries the PROPERTY_ prefix or is a built-in (NAME, ID), else
// the PROPERTY_<code> derived form. Codes that already carry the prefix are
// not doubled.
func (f FieldMeta) PropertyTag() string {
	if f.Tag != "" {
		return f.Tag
	}
	if f.Code == "" {
		return ""
	}
	code := strings.ToUpper(f.Code)
	if strings.HasPrefix(code, "PROPERTY_") {
		return code
	}
	return "PROPERTY_" + code
}

// UserIDFromWebhookURL extracts the numeric user segment from an outgoing
// webhook URL of the form https://host/rest/<user>/<token>/. Writes made
// through the webhook are attributed to that user, which is how the policy
// recognizes its own prior updates. Returns 0 when the URL does not carry
// the segment.
func UserIDFromWebhookURL(raw string) int64 {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p != "rest" || i+1 >= len(parts) {
			continue
		}
		if n, err := strconv.ParseInt(parts[i+1], 10, 64); err == nil {
			return n
		}
	}
	return 0
}
