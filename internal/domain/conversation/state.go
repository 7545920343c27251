package conversation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a conversation
type Status string

const (
	StatusCollecting Status = "collecting"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Intent is what the customer wants this conversation to do
type Intent string

const (
	IntentNone     Intent = ""
	IntentNewOrder Intent = "new_order"
	IntentEdit     Intent = "edit_order"
)

// Message roles in the transcript
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Message is one transcript entry
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the append-only conversation transcript
type History []Message

// Value implements driver.Valuer for JSON column storage
func (h History) Value() (driver.Value, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for JSON column storage
func (h *History) Scan(value interface{}) error {
	if value == nil {
		*h = History{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("cannot scan %T into History", value)
	}
}

// DraftItem is an ordered product accumulated during the dialogue.
// Confidence is the resolver score at commit time (1.0 for exact matches).
type DraftItem struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// Draft is the partially collected order data for this conversation
type Draft struct {
	Items           []DraftItem `json:"items"`
	RemoveItems     []string    `json:"remove_items,omitempty"`
	CustomerName    string      `json:"customer_name,omitempty"`
	DeliveryDate    *time.Time  `json:"delivery_date,omitempty"`
	FulfillmentType string      `json:"fulfillment_type,omitempty"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	PickupTime      string      `json:"pickup_time,omitempty"`
}

// Value implements driver.Valuer for JSON column storage
func (d Draft) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSON column storage
func (d *Draft) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan %T into Draft", value)
	}
}

// SetItem adds a draft item or overwrites the quantity of an existing one,
// matched by case-insensitive name. Quantities overwrite, they never add.
func (d *Draft) SetItem(name string, quantity int, confidence float64) {
	for idx := range d.Items {
		if strings.EqualFold(d.Items[idx].Name, name) {
			d.Items[idx].Quantity = quantity
			d.Items[idx].Confidence = confidence
			return
		}
	}
	d.Items = append(d.Items, DraftItem{Name: name, Quantity: quantity, Confidence: confidence})
}

// MarkForRemoval records a product the customer wants dropped from the
// order being edited. Duplicates are ignored.
func (d *Draft) MarkForRemoval(name string) {
	for _, existing := range d.RemoveItems {
		if strings.EqualFold(existing, name) {
			return
		}
	}
	d.RemoveItems = append(d.RemoveItems, name)
}

// OnlyRemovals reports whether the draft changes nothing but removals
func (d *Draft) OnlyRemovals() bool {
	return len(d.RemoveItems) > 0 && len(d.Items) == 0
}

// ConversationState is the aggregate root for one customer's dialogue.
// There is at most one row per customer identity; a finished conversation
// is hard-reset in place before the customer starts the next one.
type ConversationState struct {
	shared.BaseAggregateRoot
	CustomerID      string           `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status          Status           `gorm:"type:varchar(20);not null"`
	Intent          Intent           `gorm:"type:varchar(20)"`
	SelectedOrderID *uuid.UUID       `gorm:"type:uuid"`
	Draft           Draft            `gorm:"type:jsonb"`
	Pending         *PendingQuestion `gorm:"type:jsonb"`
	History         History          `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ConversationState) TableName() string {
	return "conversation_states"
}

// NewConversationState creates a fresh collecting state for a customer
func NewConversationState(customerID string) (*ConversationState, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	return &ConversationState{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            StatusCollecting,
		History:           History{},
	}, nil
}

// IsActive reports whether the conversation is still collecting input
func (c *ConversationState) IsActive() bool {
	return c.Status == StatusCollecting
}

// AppendMessage appends one transcript entry
func (c *ConversationState) AppendMessage(role, text string) {
	c.History = append(c.History, Message{Role: role, Text: text, Timestamp: time.Now()})
	c.Touch()
}

// Transcript returns the last n transcript entries, oldest first
func (c *ConversationState) Transcript(n int) []Message {
	if n <= 0 || n >= len(c.History) {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// Ask records the question the next inbound message is expected to answer
func (c *ConversationState) Ask(q *PendingQuestion) {
	c.Pending = q
	c.Touch()
}

// ClearQuestion resolves the pending question
func (c *ConversationState) ClearQuestion() {
	c.Pending = nil
	c.Touch()
}

// ChooseIntent records whether this conversation creates or edits an order
func (c *ConversationState) ChooseIntent(intent Intent) error {
	if intent != IntentNewOrder && intent != IntentEdit {
		return shared.NewDomainError("INVALID_INTENT", "Intent must be new_order or edit_order")
	}
	c.Intent = intent
	c.Touch()
	return nil
}

// SelectOrder records which existing order an edit conversation targets
func (c *ConversationState) SelectOrder(orderID uuid.UUID) {
	c.SelectedOrderID = &orderID
	c.Touch()
}

// MissingFields returns the draft fields still required, in the order they
// should be asked. An edit that only removes items needs nothing further,
// and edits in general reuse the order's existing delivery details, which
// are confirmed separately.
func (c *ConversationState) MissingFields() []Field {
	var missing []Field

	if c.Intent == IntentEdit {
		if c.Draft.OnlyRemovals() {
			return nil
		}
		if len(c.Draft.Items) == 0 {
			missing = append(missing, FieldProducts)
		} else if c.hasUnquantifiedItem() {
			missing = append(missing, FieldQuantities)
		}
		return missing
	}

	if len(c.Draft.Items) == 0 {
		missing = append(missing, FieldProducts)
	} else if c.hasUnquantifiedItem() {
		missing = append(missing, FieldQuantities)
	}
	if c.Draft.DeliveryDate == nil {
		missing = append(missing, FieldDeliveryDate)
	}
	if c.Draft.FulfillmentType == "" {
		missing = append(missing, FieldFulfillmentType)
	}
	if c.Draft.FulfillmentType == "delivery" && strings.TrimSpace(c.Draft.DeliveryAddress) == "" {
		missing = append(missing, FieldDeliveryAddress)
	}
	if strings.TrimSpace(c.Draft.PickupTime) == "" {
		missing = append(missing, FieldPickupTime)
	}
	return missing
}

func (c *ConversationState) hasUnquantifiedItem() bool {
	for _, item := range c.Draft.Items {
		if item.Quantity <= 0 {
			return true
		}
	}
	return false
}

// NextMissingField returns the first field to ask about, if any
func (c *ConversationState) NextMissingField() (Field, bool) {
	missing := c.MissingFields()
	if len(missing) == 0 {
		return "", false
	}
	return missing[0], true
}

// IsComplete reports whether the draft can be handed to order mutation
func (c *ConversationState) IsComplete() bool {
	return len(c.MissingFields()) == 0 &&
		(len(c.Draft.Items) > 0 || c.Draft.OnlyRemovals())
}

// Complete marks the conversation finished after the order was handled
func (c *ConversationState) Complete() error {
	if c.Status != StatusCollecting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete conversation in %s status", c.Status))
	}
	c.Status = StatusCompleted
	c.Pending = nil
	c.Touch()
	c.AddDomainEvent(NewConversationCompletedEvent(c))
	return nil
}

// CancelConversation abandons the dialogue without creating an order
func (c *ConversationState) CancelConversation() error {
	if c.Status != StatusCollecting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel conversation in %s status", c.Status))
	}
	c.Status = StatusCancelled
	c.Pending = nil
	c.Touch()
	return nil
}

// Reset hard-resets the state back to a fresh collecting conversation:
// draft, history, intent and pending question are all cleared.
func (c *ConversationState) Reset() {
	c.Status = StatusCollecting
	c.Intent = IntentNone
	c.SelectedOrderID = nil
	c.Draft = Draft{}
	c.Pending = nil
	c.History = History{}
	c.Touch()
	c.AddDomainEvent(NewConversationResetEvent(c))
}
