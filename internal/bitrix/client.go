// Package bitrix provides a typed client for the Bitrix24 REST API as
// exposed through an outgoing webhook URL, abstracted behind an interface
// for testability.
package bitrix

import (
	"context"
)

// ElementQuery defines the parameters for a lists.element.get call.
type ElementQuery struct {
	ListID      int
	FilterTag   string
	FilterValue string
	Select      []string
}

// Client defines the remote operations the synchronization logic needs.
type Client interface {
	// DealProductRows fetches the product line items of a deal.
	DealProductRows(ctx context.Context, dealID int64) ([]ProductRow, error)

	// DealGet fetches a deal with all its fields.
	DealGet(ctx context.Context, dealID int64) (*Deal, error)

	// DealUpdateField writes a single deal field. Returns true only when
	// the remote call reports explicit success.
	DealUpdateField(ctx context.Context, dealID int64, field string, value any) (bool, error)

	// ProductGet fetches catalog data for a product (external id and code).
	ProductGet(ctx context.Context, productID string) (*Product, error)

	// ListFields fetches the field metadata of a list container.
	ListFields(ctx context.Context, listID int) ([]FieldMeta, error)

	// ListElements fetches list elements matching the query filter. The
	// accepted filter-key spelling varies across deployments; the client
	// falls through the known spellings until one yields a non-empty
	// result. An empty result is not an error.
	ListElements(ctx context.Context, q ElementQuery) ([]ListElement, error)

	// ListElementUpdate writes fields of one list element. Returns true
	// only when the remote call reports explicit success.
	ListElementUpdate(ctx context.Context, listID int, elementID string, fields map[string]any) (bool, error)
}
