package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// StockService owns every write path that touches ReservedStock or the lot
// ledger. All multi-ingredient operations acquire per-ingredient locks in
// sorted key order so two orders can never deadlock against each other.
type StockService struct {
	ingredientRepo inventory.IngredientRepository
	lotRepo        inventory.IngredientLotRepository
	locks          shared.KeyLocker
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService
func NewStockService(
	ingredientRepo inventory.IngredientRepository,
	lotRepo inventory.IngredientLotRepository,
	locks shared.KeyLocker,
) *StockService {
	return &StockService{
		ingredientRepo: ingredientRepo,
		lotRepo:        lotRepo,
		locks:          locks,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func ingredientLockKey(id uuid.UUID) string {
	return "ingredient:" + id.String()
}

// lockIngredients acquires the per-ingredient locks for all requirements in
// sorted key order and returns the matching unlock function.
func (s *StockService) lockIngredients(requirements []inventory.IngredientRequirement) func() {
	keys := make([]string, 0, len(requirements))
	seen := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
		key := ingredientLockKey(req.IngredientID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		s.locks.Lock(key)
	}
	return func() {
		for idx := len(keys) - 1; idx >= 0; idx-- {
			s.locks.Unlock(keys[idx])
		}
	}
}

// drainEvents takes the pending domain events off an ingredient. Publication
// happens after the ingredient locks are released: the bus dispatches
// synchronously, and a subscriber such as the restock retry handler re-enters
// this service and takes the same locks.
func drainEvents(ingredient *inventory.Ingredient) []shared.DomainEvent {
	events := ingredient.GetDomainEvents()
	ingredient.ClearDomainEvents()
	return events
}

func (s *StockService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// ReserveForOrder places a soft hold for every requirement in the batch.
// Availability is recomputed from freshly loaded ingredients inside the
// critical section, and the whole batch fails with per-ingredient messages
// if any single requirement cannot be met.
func (s *StockService) ReserveForOrder(ctx context.Context, requirements []inventory.IngredientRequirement) error {
	if len(requirements) == 0 {
		return nil
	}
	var pending []shared.DomainEvent
	defer func() { s.publishEvents(ctx, pending) }()
	unlock := s.lockIngredients(requirements)
	defer unlock()

	now := time.Now()
	loaded := make([]*inventory.Ingredient, len(requirements))
	var failures []string
	for idx, req := range requirements {
		ingredient, err := s.ingredientRepo.FindByID(ctx, req.IngredientID)
		if err != nil {
			return err
		}
		loaded[idx] = ingredient
		if ingredient.AvailableAt(now).LessThan(req.Required) {
			failures = append(failures, fmt.Sprintf(
				"%s kurang %s %s",
				ingredient.Name,
				req.Required.Sub(ingredient.AvailableAt(now)).String(),
				ingredient.Unit,
			))
		}
	}
	if len(failures) > 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK", strings.Join(failures, "; "))
	}

	for idx, req := range requirements {
		if err := loaded[idx].Reserve(req.Required); err != nil {
			return s.rollbackReservations(ctx, requirements[:idx], err)
		}
		if err := s.ingredientRepo.Save(ctx, loaded[idx]); err != nil {
			return s.rollbackReservations(ctx, requirements[:idx], err)
		}
		pending = append(pending, drainEvents(loaded[idx])...)
	}
	return nil
}

// rollbackReservations releases holds already persisted when a later
// ingredient in the batch fails, keeping the batch all-or-nothing. The
// caller still holds the ingredient locks.
func (s *StockService) rollbackReservations(ctx context.Context, persisted []inventory.IngredientRequirement, cause error) error {
	for _, req := range persisted {
		ingredient, err := s.ingredientRepo.FindByID(ctx, req.IngredientID)
		if err != nil {
			cause = errors.Join(cause, fmt.Errorf("rollback hold on %s: %w", req.IngredientID, err))
			continue
		}
		ingredient.ReleaseReservation(req.Required)
		ingredient.ClearDomainEvents()
		if err := s.ingredientRepo.Save(ctx, ingredient); err != nil {
			cause = errors.Join(cause, fmt.Errorf("rollback hold on %s: %w", req.IngredientID, err))
		}
	}
	return cause
}

// ReleaseForOrder removes the soft hold for every requirement in the batch.
// Releases are floored at zero, so running this twice for the same order is
// harmless.
func (s *StockService) ReleaseForOrder(ctx context.Context, requirements []inventory.IngredientRequirement) error {
	if len(requirements) == 0 {
		return nil
	}
	var pending []shared.DomainEvent
	defer func() { s.publishEvents(ctx, pending) }()
	unlock := s.lockIngredients(requirements)
	defer unlock()

	for _, req := range requirements {
		ingredient, err := s.ingredientRepo.FindByID(ctx, req.IngredientID)
		if err != nil {
			return err
		}
		ingredient.ReleaseReservation(req.Required)
		if err := s.ingredientRepo.Save(ctx, ingredient); err != nil {
			return err
		}
		pending = append(pending, drainEvents(ingredient)...)
	}
	return nil
}

// ConvertReservationToDeduction performs the FEFO deduction for every
// requirement and releases the matching reservation inside the same critical
// section, so the same unit of stock can never be counted twice. The whole
// batch is verified against freshly derived lots before any lot is written;
// if even one ingredient cannot be covered, nothing is deducted.
func (s *StockService) ConvertReservationToDeduction(ctx context.Context, requirements []inventory.IngredientRequirement) ([]LotUsageReport, error) {
	return s.deduct(ctx, requirements, true)
}

// DeductFEFO performs the FEFO deduction without touching reservations, for
// consumption that never had a soft hold.
func (s *StockService) DeductFEFO(ctx context.Context, requirements []inventory.IngredientRequirement) ([]LotUsageReport, error) {
	return s.deduct(ctx, requirements, false)
}

func (s *StockService) deduct(ctx context.Context, requirements []inventory.IngredientRequirement, releaseReservation bool) ([]LotUsageReport, error) {
	if len(requirements) == 0 {
		return nil, nil
	}
	var pending []shared.DomainEvent
	defer func() { s.publishEvents(ctx, pending) }()
	unlock := s.lockIngredients(requirements)
	defer unlock()

	now := time.Now()

	planned := make([]plannedDeduction, 0, len(requirements))
	var failures []string
	for _, req := range requirements {
		ingredient, err := s.ingredientRepo.FindByID(ctx, req.IngredientID)
		if err != nil {
			return nil, err
		}
		selection := inventory.FindLotsToUse(ingredient.Lots, now)
		if selection.TotalAvailable.LessThan(req.Required) {
			failures = append(failures, fmt.Sprintf(
				"%s kurang %s %s",
				ingredient.Name,
				req.Required.Sub(selection.TotalAvailable).String(),
				ingredient.Unit,
			))
			continue
		}
		plan, err := inventory.PlanDeduction(selection, req.Required)
		if err != nil {
			return nil, err
		}
		if !plan.FullyFulfilled {
			failures = append(failures, fmt.Sprintf("%s kurang %s %s", ingredient.Name, plan.Remaining.String(), ingredient.Unit))
			continue
		}
		planned = append(planned, plannedDeduction{ingredient: ingredient, plan: plan, required: req.Required})
	}
	if len(failures) > 0 {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK", strings.Join(failures, "; "))
	}

	usages := make([]LotUsageReport, 0)
	applied := make([]plannedDeduction, 0, len(planned))
	for _, pd := range planned {
		if err := inventory.ApplyDeductionPlan(pd.ingredient, pd.plan, now); err != nil {
			return nil, s.rollbackDeductions(ctx, applied, releaseReservation, err)
		}
		if releaseReservation {
			pd.ingredient.ReleaseReservation(pd.required)
		}
		if err := s.ingredientRepo.Save(ctx, pd.ingredient); err != nil {
			return nil, s.rollbackDeductions(ctx, applied, releaseReservation, err)
		}
		pending = append(pending, drainEvents(pd.ingredient)...)
		applied = append(applied, pd)

		for _, usage := range pd.plan.Usages {
			usages = append(usages, LotUsageReport{
				IngredientID:   pd.ingredient.ID,
				IngredientName: pd.ingredient.Name,
				LotID:          usage.LotID,
				Quantity:       usage.Deducted,
				Status:         string(usage.Status),
				ExpiryDate:     usage.ExpiryDate,
			})
		}
	}
	return usages, nil
}

// plannedDeduction pairs an ingredient with the FEFO plan computed for it
// during batch verification.
type plannedDeduction struct {
	ingredient *inventory.Ingredient
	plan       *inventory.DeductionPlan
	required   decimal.Decimal
}

// rollbackDeductions undoes deductions already persisted when a later
// ingredient in the batch fails: lot stock is restored, the aggregate
// resynced, and the reservation re-taken when it had been released. The
// caller still holds the ingredient locks.
func (s *StockService) rollbackDeductions(ctx context.Context, applied []plannedDeduction, restoreReservation bool, cause error) error {
	now := time.Now()
	for _, pd := range applied {
		ingredient, err := s.ingredientRepo.FindByID(ctx, pd.ingredient.ID)
		if err != nil {
			cause = errors.Join(cause, fmt.Errorf("rollback deduction on %s: %w", pd.ingredient.ID, err))
			continue
		}
		byID := make(map[uuid.UUID]*inventory.IngredientLot, len(ingredient.Lots))
		for idx := range ingredient.Lots {
			byID[ingredient.Lots[idx].ID] = &ingredient.Lots[idx]
		}
		for _, usage := range pd.plan.Usages {
			if lot, ok := byID[usage.LotID]; ok {
				lot.Restore(usage.Deducted)
			}
		}
		ingredient.SyncStockFromLots(now)
		if restoreReservation {
			if err := ingredient.Reserve(pd.required); err != nil {
				cause = errors.Join(cause, fmt.Errorf("rollback hold on %s: %w", pd.ingredient.ID, err))
			}
		}
		ingredient.ClearDomainEvents()
		if err := s.ingredientRepo.Save(ctx, ingredient); err != nil {
			cause = errors.Join(cause, fmt.Errorf("rollback deduction on %s: %w", pd.ingredient.ID, err))
		}
	}
	return cause
}

// Replenish registers a delivery as a new lot for the ingredient
func (s *StockService) Replenish(ctx context.Context, req ReplenishRequest) (*IngredientResponse, error) {
	var pending []shared.DomainEvent
	defer func() { s.publishEvents(ctx, pending) }()
	unlock := s.lockIngredients([]inventory.IngredientRequirement{{IngredientID: req.IngredientID}})
	defer unlock()

	ingredient, err := s.ingredientRepo.FindByID(ctx, req.IngredientID)
	if err != nil {
		return nil, err
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != nil {
		purchaseDate = *req.PurchaseDate
	}
	if _, err := ingredient.AddLot(req.Quantity, req.ExpiryDate, purchaseDate, req.Supplier, req.UnitCost); err != nil {
		return nil, err
	}
	if err := s.ingredientRepo.Save(ctx, ingredient); err != nil {
		return nil, err
	}
	pending = append(pending, drainEvents(ingredient)...)

	response := ToIngredientResponse(ingredient)
	return &response, nil
}

// CreateIngredient registers a new raw material with empty stock
func (s *StockService) CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*IngredientResponse, error) {
	if existing, err := s.ingredientRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	ingredient, err := inventory.NewIngredient(req.Name, req.Unit)
	if err != nil {
		return nil, err
	}
	if !req.MinimumStock.IsZero() {
		if err := ingredient.SetMinimumStock(req.MinimumStock); err != nil {
			return nil, err
		}
	}

	if err := s.ingredientRepo.Save(ctx, ingredient); err != nil {
		return nil, err
	}

	response := ToIngredientResponse(ingredient)
	return &response, nil
}

// GetIngredient returns one ingredient with its live stock posture
func (s *StockService) GetIngredient(ctx context.Context, id uuid.UUID) (*IngredientResponse, error) {
	ingredient, err := s.ingredientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToIngredientResponse(ingredient)
	return &response, nil
}

// ListIngredients returns all ingredients
func (s *StockService) ListIngredients(ctx context.Context, filter shared.Filter) ([]IngredientResponse, error) {
	ingredients, err := s.ingredientRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]IngredientResponse, 0, len(ingredients))
	for idx := range ingredients {
		responses = append(responses, ToIngredientResponse(&ingredients[idx]))
	}
	return responses, nil
}

// ListBelowMinimum returns ingredients under their alert threshold
func (s *StockService) ListBelowMinimum(ctx context.Context) ([]IngredientResponse, error) {
	ingredients, err := s.ingredientRepo.FindBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]IngredientResponse, 0, len(ingredients))
	for idx := range ingredients {
		responses = append(responses, ToIngredientResponse(&ingredients[idx]))
	}
	return responses, nil
}

// RecommendedLots returns the read-only FEFO preview for a required quantity
func (s *StockService) RecommendedLots(ctx context.Context, ingredientID uuid.UUID, required decimal.Decimal) ([]RecommendedLotResponse, error) {
	ingredient, err := s.ingredientRepo.FindByID(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	recommended := inventory.GetRecommendedLots(ingredient.Lots, required, time.Now())
	responses := make([]RecommendedLotResponse, 0, len(recommended))
	for _, rec := range recommended {
		responses = append(responses, RecommendedLotResponse{
			LotID:        rec.Lot.ID,
			ExpiryDate:   rec.Lot.ExpiryDate,
			CurrentStock: rec.Lot.CurrentStock,
			UseQuantity:  rec.UseQuantity,
			ExpiringSoon: rec.ExpiringSoon,
		})
	}
	return responses, nil
}

// ExpiringLots returns lots that expire within the given window, for the
// expiry digest surfaces.
func (s *StockService) ExpiringLots(ctx context.Context, window time.Duration) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindExpiringWithin(ctx, window)
	if err != nil {
		return nil, err
	}
	responses := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		responses = append(responses, ToLotResponse(lot))
	}
	return responses, nil
}
