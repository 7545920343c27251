package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apporder "github.com/tokoroti/backend/internal/application/order"
	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/conversation"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// ChatService drives the multi-turn ordering dialogue. One inbound message
// produces exactly one reply and exactly one persisted read-modify-write of
// the customer's conversation state, serialized per customer.
type ChatService struct {
	states    conversation.Repository
	orders    *apporder.OrderService
	catalog   CatalogReader
	extractor Extractor
	locks     shared.KeyLocker
	logger    *zap.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	states conversation.Repository,
	orders *apporder.OrderService,
	catalogReader CatalogReader,
	extractor Extractor,
	locks shared.KeyLocker,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		states:    states,
		orders:    orders,
		catalog:   catalogReader,
		extractor: extractor,
		locks:     locks,
		logger:    logger,
	}
}

func customerLockKey(customerID string) string {
	return "customer:" + customerID
}

// HandleMessage processes one inbound customer message and returns the
// reply text. Errors below the routing layer surface as a generic apology
// so the customer can always retry; the draft survives untouched.
func (s *ChatService) HandleMessage(ctx context.Context, customerID, customerName, text string) (string, error) {
	s.locks.Lock(customerLockKey(customerID))
	defer s.locks.Unlock(customerLockKey(customerID))

	state, err := s.states.FindByCustomer(ctx, customerID)
	if err != nil {
		return "", err
	}
	if state == nil {
		state, err = conversation.NewConversationState(customerID)
		if err != nil {
			return "", err
		}
	}
	// a finished conversation is reused by hard-resetting it first
	if !state.IsActive() {
		state.Reset()
	}
	if customerName != "" && state.Draft.CustomerName == "" {
		state.Draft.CustomerName = customerName
	}

	state.AppendMessage(conversation.RoleCustomer, text)

	reply, err := s.route(ctx, state, text)
	if err != nil {
		s.logger.Error("message handling failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		reply = replyApology
	}

	state.AppendMessage(conversation.RoleAssistant, reply)
	if err := s.states.Save(ctx, state); err != nil {
		return "", err
	}
	return reply, nil
}

// route dispatches on the pending question first; those sub-dialogues must
// resolve before general extraction resumes.
func (s *ChatService) route(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	// the new-or-edit gate runs once, before anything else, when the
	// customer already has live orders
	if state.Intent == conversation.IntentNone && state.Pending == nil {
		active, err := s.orders.ListActiveByCustomer(ctx, state.CustomerID)
		if err != nil {
			return "", err
		}
		if len(active) > 0 {
			state.Ask(conversation.NewOrEditQuestion())
			return replyAskNewOrEdit, nil
		}
		if err := state.ChooseIntent(conversation.IntentNewOrder); err != nil {
			return "", err
		}
	}

	switch {
	case state.Pending.Is(conversation.QuestionNewOrEdit):
		return s.handleNewOrEdit(ctx, state, text)
	case state.Pending.Is(conversation.QuestionOrderSelection):
		return s.handleOrderSelection(ctx, state, text)
	case state.Pending.Is(conversation.QuestionProductClarification):
		return s.handleClarification(ctx, state, text)
	case state.Pending.Is(conversation.QuestionEditConfirmItems):
		return s.handleEditConfirmItems(ctx, state, text)
	case state.Pending.Is(conversation.QuestionEditConfirmDelivery):
		return s.handleEditConfirmDelivery(ctx, state, text)
	case state.Pending.Is(conversation.QuestionEditChangeDelivery):
		return s.handleEditChangeDelivery(ctx, state, text)
	case state.Pending.Is(conversation.QuestionEditFollowUp):
		return s.handleEditFollowUp(ctx, state, text)
	default:
		// missing_field or no pending question: general extraction
		return s.handleExtraction(ctx, state, text)
	}
}

func (s *ChatService) handleNewOrEdit(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "baru") || strings.Contains(lowered, "new"):
		state.ClearQuestion()
		if err := state.ChooseIntent(conversation.IntentNewOrder); err != nil {
			return "", err
		}
		// the same message may already carry the order itself
		return s.handleExtraction(ctx, state, text)

	case strings.Contains(lowered, "edit") || strings.Contains(lowered, "ubah"):
		state.ClearQuestion()
		if err := state.ChooseIntent(conversation.IntentEdit); err != nil {
			return "", err
		}
		active, err := s.orders.ListActiveByCustomer(ctx, state.CustomerID)
		if err != nil {
			return "", err
		}
		if len(active) == 0 {
			// the orders finished while the question was pending
			if err := state.ChooseIntent(conversation.IntentNewOrder); err != nil {
				return "", err
			}
			return s.handleExtraction(ctx, state, text)
		}
		if len(active) == 1 {
			state.SelectOrder(active[0].ID)
			state.Ask(conversation.EditTailQuestion(conversation.QuestionEditFollowUp))
			return replyAskEditWhat, nil
		}
		choices := make([]uuid.UUID, 0, len(active))
		for _, o := range active {
			choices = append(choices, o.ID)
		}
		state.Ask(conversation.OrderSelectionQuestion(choices))
		return replyAskOrderSelection(active), nil

	default:
		// invalid replies re-prompt without advancing
		return replyAskNewOrEdit, nil
	}
}

func (s *ChatService) handleOrderSelection(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	choices := state.Pending.OrderChoices
	trimmed := strings.TrimSpace(text)

	var selected *uuid.UUID
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(choices) {
		selected = &choices[n-1]
	} else {
		for idx := range choices {
			if strings.EqualFold(trimmed, choices[idx].String()) {
				selected = &choices[idx]
				break
			}
		}
	}

	if selected == nil {
		active, err := s.orders.ListActiveByCustomer(ctx, state.CustomerID)
		if err != nil {
			return "", err
		}
		return replyAskOrderSelection(active), nil
	}

	state.SelectOrder(*selected)
	state.Ask(conversation.EditTailQuestion(conversation.QuestionEditFollowUp))
	return replyAskEditWhat, nil
}

// handleClarification re-resolves each ambiguous phrase against the reply.
// Phrases reduced to one candidate are committed; phrases still matching
// two or more are re-asked in one combined message together with a summary
// of what is already confirmed.
func (s *ChatService) handleClarification(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	var stillAmbiguous []conversation.AmbiguousPhrase
	var dropped []string

	for _, phrase := range state.Pending.AmbiguousPhrases {
		hits := matchCandidates(text, phrase)
		switch {
		case len(hits) == 1:
			state.Draft.SetItem(hits[0].Name, phrase.Quantity, 1.0)
		case len(hits) > 1:
			stillAmbiguous = append(stillAmbiguous, phrase)
		default:
			// a reply matching nothing re-asks once more with the original
			// candidate list instead of silently dropping the item
			phrase.Retries++
			if phrase.Retries >= 2 {
				dropped = append(dropped, phrase.Phrase)
			} else {
				stillAmbiguous = append(stillAmbiguous, phrase)
			}
		}
	}

	prefix := ""
	if len(dropped) > 0 {
		prefix = fmt.Sprintf("Maaf, \"%s\" tidak kami temukan dan dilewati.\n", strings.Join(dropped, "\", \""))
	}

	if len(stillAmbiguous) > 0 {
		state.Ask(conversation.ProductClarificationQuestion(stillAmbiguous))
		return prefix + replyClarification(stillAmbiguous, state.Draft.Items), nil
	}

	state.ClearQuestion()
	reply, err := s.advance(ctx, state)
	if err != nil {
		return "", err
	}
	return prefix + reply, nil
}

// matchCandidates resolves a clarification reply against one phrase's
// candidate list: exact or contained names first, fuzzy similarity second.
func matchCandidates(reply string, phrase conversation.AmbiguousPhrase) []conversation.Candidate {
	lowered := strings.ToLower(strings.TrimSpace(reply))

	hits := make([]conversation.Candidate, 0)
	for _, candidate := range phrase.Candidates {
		name := strings.ToLower(candidate.Name)
		if lowered == name || strings.Contains(lowered, name) {
			hits = append(hits, candidate)
		}
	}
	if len(hits) > 0 {
		return hits
	}

	for _, candidate := range phrase.Candidates {
		if catalog.Similarity(lowered, strings.ToLower(candidate.Name)) >= 0.6 {
			hits = append(hits, candidate)
		}
	}
	return hits
}

func (s *ChatService) handleEditConfirmItems(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	yes, ok := parseYesNo(text)
	if !ok {
		return replyAskYesNo, nil
	}
	if !yes {
		state.Draft.Items = nil
		state.Draft.RemoveItems = nil
		state.Ask(conversation.EditTailQuestion(conversation.QuestionEditFollowUp))
		return replyEditDiscarded + " " + replyEditFollowUp, nil
	}
	state.Ask(conversation.EditTailQuestion(conversation.QuestionEditConfirmDelivery))
	return replyAskEditConfirmDelivery, nil
}

func (s *ChatService) handleEditConfirmDelivery(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	lowered := strings.ToLower(text)
	yes, ok := parseYesNo(text)
	if !ok && !strings.Contains(lowered, "tetap") {
		return replyAskYesNo, nil
	}
	if yes {
		state.Ask(conversation.EditTailQuestion(conversation.QuestionEditChangeDelivery))
		return replyAskEditNewDelivery, nil
	}
	// "keep as is": apply the item changes only
	return s.applyEdit(ctx, state, nil)
}

func (s *ChatService) handleEditChangeDelivery(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	result, err := s.extractor.Analyze(ctx, AnalyzeRequest{
		Text:       text,
		Catalog:    products,
		Transcript: state.Transcript(transcriptWindow),
		Draft:      state.Draft,
	})
	if err != nil {
		s.logger.Warn("extraction gateway failed", zap.String("customer_id", state.CustomerID), zap.Error(err))
		return replyApology, nil
	}
	return s.applyEdit(ctx, state, result)
}

func (s *ChatService) handleEditFollowUp(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	if yes, ok := parseYesNo(text); ok && !yes {
		if err := state.Complete(); err != nil {
			return "", err
		}
		return replyEditClosed, nil
	}
	state.ClearQuestion()
	return s.handleExtraction(ctx, state, text)
}

const transcriptWindow = 10

// handleExtraction is the general path: the gateway reads the message, the
// ambiguity gate vets every product mention, and the dialogue advances to
// the next missing field or to order handling.
func (s *ChatService) handleExtraction(ctx context.Context, state *conversation.ConversationState, text string) (string, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return "", err
	}

	result, err := s.extractor.Analyze(ctx, AnalyzeRequest{
		Text:       text,
		Catalog:    products,
		Transcript: state.Transcript(transcriptWindow),
		Draft:      state.Draft,
	})
	if err != nil {
		// surfaced as an apology; the draft stays as it was so the
		// customer can simply retry
		s.logger.Warn("extraction gateway failed", zap.String("customer_id", state.CustomerID), zap.Error(err))
		return replyApology, nil
	}

	if result.IsReset() {
		state.Reset()
		return replyResetDone, nil
	}

	s.mergeScalarFields(state, result)

	if state.Intent == conversation.IntentEdit {
		for _, name := range result.RemoveProducts {
			state.Draft.MarkForRemoval(name)
		}
	}

	mentions := append([]ExtractedProduct{}, result.Products...)
	mentions = append(mentions, result.AmbiguousProducts...)

	var ambiguous []conversation.AmbiguousPhrase
	var notFound []string
	for _, mention := range mentions {
		if strings.TrimSpace(mention.Name) == "" {
			continue
		}
		// an exact catalog name commits outright, no resolver involved
		if product := catalog.FindByExactName(products, mention.Name); product != nil {
			state.Draft.SetItem(product.Name, mention.Quantity, 1.0)
			continue
		}

		matches := catalog.FindSimilarProducts(mention.Name, products, catalog.DefaultSimilarityThreshold)
		matches = catalog.FilterByLiteralMention(mention.Name, matches)
		switch {
		case len(matches) == 0:
			notFound = append(notFound, mention.Name)
		case len(matches) == 1:
			state.Draft.SetItem(matches[0].Product.Name, mention.Quantity, matches[0].Score)
		default:
			ambiguous = append(ambiguous, toAmbiguousPhrase(mention, matches))
		}
	}

	prefix := ""
	if len(notFound) > 0 {
		prefix = fmt.Sprintf("Maaf, %s tidak ada di katalog kami.\n", strings.Join(notFound, ", "))
	}

	if len(ambiguous) > 0 {
		state.Ask(conversation.ProductClarificationQuestion(ambiguous))
		return prefix + replyClarification(ambiguous, state.Draft.Items), nil
	}

	state.ClearQuestion()
	reply, err := s.advance(ctx, state)
	if err != nil {
		return "", err
	}
	return prefix + reply, nil
}

func (s *ChatService) mergeScalarFields(state *conversation.ConversationState, result *ExtractionResult) {
	if result.CustomerName != "" {
		state.Draft.CustomerName = result.CustomerName
	}
	if result.DeliveryDate != "" {
		if date, ok := parseDate(result.DeliveryDate); ok {
			state.Draft.DeliveryDate = &date
		}
	}
	if fulfillment := normalizeFulfillment(result.FulfillmentType); fulfillment != "" {
		state.Draft.FulfillmentType = fulfillment
	}
	if result.DeliveryAddress != "" {
		state.Draft.DeliveryAddress = result.DeliveryAddress
	}
	if result.PickupTime != "" {
		state.Draft.PickupTime = result.PickupTime
	}
}

// advance asks for the first missing field, or hands a complete draft off
// to order creation or the edit confirmation tail.
func (s *ChatService) advance(ctx context.Context, state *conversation.ConversationState) (string, error) {
	if field, ok := state.NextMissingField(); ok {
		state.Ask(conversation.MissingFieldQuestion(field))
		return replyAskMissingField(field), nil
	}

	if state.Intent == conversation.IntentEdit {
		return s.beginEditConfirmation(ctx, state)
	}
	return s.finalizeNewOrder(ctx, state)
}

func (s *ChatService) finalizeNewOrder(ctx context.Context, state *conversation.ConversationState) (string, error) {
	items := make([]apporder.RequestedItem, 0, len(state.Draft.Items))
	for _, item := range state.Draft.Items {
		items = append(items, apporder.RequestedItem{Name: item.Name, Quantity: item.Quantity})
	}

	result, err := s.orders.CreateFromDraft(ctx, apporder.CreateOrderRequest{
		CustomerID:      state.CustomerID,
		CustomerName:    state.Draft.CustomerName,
		Items:           items,
		FulfillmentType: state.Draft.FulfillmentType,
		DeliveryDate:    state.Draft.DeliveryDate,
		DeliveryAddress: state.Draft.DeliveryAddress,
		PickupTime:      state.Draft.PickupTime,
	})
	if err != nil {
		return "", err
	}

	if err := state.Complete(); err != nil {
		return "", err
	}
	if result.Reserved {
		return replyOrderConfirmed(result), nil
	}
	return replyOrderPending(result), nil
}

// beginEditConfirmation shows the proposed item list. The underlying order
// is never written until the customer confirms.
func (s *ChatService) beginEditConfirmation(ctx context.Context, state *conversation.ConversationState) (string, error) {
	if state.SelectedOrderID == nil {
		return "", shared.NewDomainError("NO_ORDER_SELECTED", "Edit conversation has no selected order")
	}

	proposal, err := s.orders.ProposeEdit(ctx, *state.SelectedOrderID, s.editRequest(state, nil))
	if err != nil {
		state.Ask(conversation.EditTailQuestion(conversation.QuestionEditFollowUp))
		return fmt.Sprintf("Maaf, perubahan itu tidak bisa diterapkan: %s. %s", err.Error(), replyEditFollowUp), nil
	}

	state.Ask(conversation.EditTailQuestion(conversation.QuestionEditConfirmItems))
	return replyEditProposal(proposal), nil
}

func (s *ChatService) editRequest(state *conversation.ConversationState, delivery *ExtractionResult) apporder.EditOrderRequest {
	req := apporder.EditOrderRequest{
		RemoveItems: state.Draft.RemoveItems,
	}
	for _, item := range state.Draft.Items {
		req.Items = append(req.Items, apporder.RequestedItem{Name: item.Name, Quantity: item.Quantity})
	}
	if delivery != nil {
		req.FulfillmentType = normalizeFulfillment(delivery.FulfillmentType)
		if delivery.DeliveryDate != "" {
			if date, ok := parseDate(delivery.DeliveryDate); ok {
				req.DeliveryDate = &date
			}
		}
		req.DeliveryAddress = delivery.DeliveryAddress
		req.PickupTime = delivery.PickupTime
	}
	return req
}

func (s *ChatService) applyEdit(ctx context.Context, state *conversation.ConversationState, delivery *ExtractionResult) (string, error) {
	if state.SelectedOrderID == nil {
		return "", shared.NewDomainError("NO_ORDER_SELECTED", "Edit conversation has no selected order")
	}

	updated, err := s.orders.ApplyEdit(ctx, *state.SelectedOrderID, s.editRequest(state, delivery))
	if err != nil {
		state.Ask(conversation.EditTailQuestion(conversation.QuestionEditFollowUp))
		return fmt.Sprintf("Maaf, perubahan tidak bisa disimpan: %s. %s", err.Error(), replyEditFollowUp), nil
	}

	if err := state.Complete(); err != nil {
		return "", err
	}
	return replyEditApplied(updated), nil
}

func toAmbiguousPhrase(mention ExtractedProduct, matches []catalog.ProductMatch) conversation.AmbiguousPhrase {
	candidates := make([]conversation.Candidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, conversation.Candidate{
			Name:  match.Product.Name,
			Price: match.Product.Price,
		})
	}
	return conversation.AmbiguousPhrase{
		Phrase:     mention.Name,
		Quantity:   mention.Quantity,
		Candidates: candidates,
	}
}

var yesWords = map[string]struct{}{
	"ya": {}, "iya": {}, "y": {}, "ok": {}, "oke": {}, "yes": {}, "betul": {}, "benar": {}, "konfirmasi": {},
}

var noWords = map[string]struct{}{
	"tidak": {}, "ga": {}, "gak": {}, "nggak": {}, "engga": {}, "no": {}, "tdk": {},
}

// parseYesNo reads a constrained yes/no reply; ok is false when the text
// contains neither.
func parseYesNo(text string) (yes, ok bool) {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		if _, hit := noWords[word]; hit {
			return false, true
		}
		if _, hit := yesWords[word]; hit {
			return true, true
		}
	}
	return false, false
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006"}

func parseDate(text string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, trimmed); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

func normalizeFulfillment(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "pickup", "ambil", "ambil sendiri", "diambil":
		return "pickup"
	case "delivery", "antar", "diantar", "kirim", "dikirim":
		return "delivery"
	default:
		return ""
	}
}
