package conversation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestionType tags the kind of reply the dialogue currently expects
type QuestionType string

const (
	QuestionNewOrEdit            QuestionType = "new_or_edit"
	QuestionOrderSelection       QuestionType = "order_selection"
	QuestionMissingField         QuestionType = "missing_field"
	QuestionProductClarification QuestionType = "product_clarification"
	QuestionEditConfirmItems     QuestionType = "edit_confirm_items"
	QuestionEditConfirmDelivery  QuestionType = "edit_confirm_delivery"
	QuestionEditChangeDelivery   QuestionType = "edit_change_delivery"
	QuestionEditFollowUp         QuestionType = "edit_follow_up"
)

// Field identifies a draft field the dialogue still has to collect
type Field string

const (
	FieldProducts        Field = "products"
	FieldQuantities      Field = "quantities"
	FieldDeliveryDate    Field = "delivery_date"
	FieldFulfillmentType Field = "fulfillment_type"
	FieldDeliveryAddress Field = "delivery_address"
	FieldPickupTime      Field = "pickup_time"
)

// Candidate is one catalog product offered during clarification
type Candidate struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// AmbiguousPhrase is a product mention that matched two or more catalog
// names and is awaiting the customer's pick. The quantity travels with the
// phrase so the eventual pick commits with it.
type AmbiguousPhrase struct {
	Phrase     string      `json:"phrase"`
	Quantity   int         `json:"quantity"`
	Candidates []Candidate `json:"candidates"`
	Retries    int         `json:"retries"`
}

// PendingQuestion is a tagged variant: Type selects which payload fields are
// meaningful. Use the constructors so illegal combinations never occur.
type PendingQuestion struct {
	Type             QuestionType      `json:"type"`
	Field            Field             `json:"field,omitempty"`
	OrderChoices     []uuid.UUID       `json:"order_choices,omitempty"`
	AmbiguousPhrases []AmbiguousPhrase `json:"ambiguous_phrases,omitempty"`
}

// NewOrEditQuestion asks whether the customer wants a new order or an edit
func NewOrEditQuestion() *PendingQuestion {
	return &PendingQuestion{Type: QuestionNewOrEdit}
}

// OrderSelectionQuestion asks the customer to pick one of the listed orders
func OrderSelectionQuestion(orderIDs []uuid.UUID) *PendingQuestion {
	return &PendingQuestion{Type: QuestionOrderSelection, OrderChoices: orderIDs}
}

// MissingFieldQuestion asks for one specific draft field
func MissingFieldQuestion(field Field) *PendingQuestion {
	return &PendingQuestion{Type: QuestionMissingField, Field: field}
}

// ProductClarificationQuestion asks the customer to disambiguate phrases
// that matched more than one catalog product.
func ProductClarificationQuestion(phrases []AmbiguousPhrase) *PendingQuestion {
	return &PendingQuestion{Type: QuestionProductClarification, AmbiguousPhrases: phrases}
}

// EditTailQuestion builds one of the edit confirmation questions
func EditTailQuestion(t QuestionType) *PendingQuestion {
	return &PendingQuestion{Type: t}
}

// Is reports whether the pending question has the given type; safe on nil
func (q *PendingQuestion) Is(t QuestionType) bool {
	return q != nil && q.Type == t
}

// Value implements driver.Valuer for JSON column storage
func (q PendingQuestion) Value() (driver.Value, error) {
	return json.Marshal(q)
}

// Scan implements sql.Scanner for JSON column storage
func (q *PendingQuestion) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	default:
		return fmt.Errorf("cannot scan %T into PendingQuestion", value)
	}
}
