package chat

import (
	"context"

	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/conversation"
)

// ExtractedProduct is one product mention the gateway pulled out of free text
type ExtractedProduct struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ExtractionResult is the structured reading of one customer message.
// Every field except Products is optional; the gateway fills in what the
// message actually contained.
type ExtractionResult struct {
	Products          []ExtractedProduct `json:"products"`
	AmbiguousProducts []ExtractedProduct `json:"ambiguous_products,omitempty"`
	RemoveProducts    []string           `json:"remove_products,omitempty"`
	CustomerName      string             `json:"customer_name,omitempty"`
	DeliveryDate      string             `json:"delivery_date,omitempty"`
	DeliveryAddress   string             `json:"delivery_address,omitempty"`
	FulfillmentType   string             `json:"fulfillment_type,omitempty"`
	PickupTime        string             `json:"pickup_time,omitempty"`
	Intent            string             `json:"intent,omitempty"` // "reset" or empty
	SuggestedQuestion string             `json:"suggested_question,omitempty"`
}

// IsReset reports whether the customer explicitly asked to start over
func (r *ExtractionResult) IsReset() bool {
	return r.Intent == "reset"
}

// AnalyzeRequest carries everything the gateway needs to read one message
// in context: the catalog snapshot, the rolling transcript and the draft
// collected so far.
type AnalyzeRequest struct {
	Text       string
	Catalog    []catalog.Product
	Transcript []conversation.Message
	Draft      conversation.Draft
}

// Extractor is the natural-language extraction gateway. The call itself is
// the only thing this core does with it; latency or failure must never hold
// a conversation or ingredient lock.
type Extractor interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*ExtractionResult, error)
}

// CatalogReader provides the read-only product snapshot used for extraction
// context and product resolution.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// OutboundSender delivers one plain-text message to a customer outside the
// request/response cycle, e.g. when a parked order is accepted after a
// restock.
type OutboundSender interface {
	Send(ctx context.Context, customerID, text string) error
}
