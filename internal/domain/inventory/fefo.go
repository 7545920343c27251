package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// ExpiringSoonWindow flags lots that should be used first in previews
const ExpiringSoonWindow = 7 * 24 * time.Hour

// LotUsageStatus describes how much of a lot a deduction consumed
type LotUsageStatus string

const (
	LotFullyUsed     LotUsageStatus = "fully_used"
	LotPartiallyUsed LotUsageStatus = "partially_used"
)

// LotUsage records a single-lot deduction within a FEFO plan
type LotUsage struct {
	LotID          uuid.UUID
	ExpiryDate     time.Time
	Deducted       decimal.Decimal
	RemainingInLot decimal.Decimal
	Status         LotUsageStatus
}

// FEFOSelection is the ordered list of lots a deduction would draw from,
// oldest expiry first, together with their combined remaining stock.
type FEFOSelection struct {
	Lots           []IngredientLot
	TotalAvailable decimal.Decimal
}

// DeductionPlan is the computed outcome of walking a FEFO selection for a
// required quantity. It carries no side effects until applied to real lots.
type DeductionPlan struct {
	Usages         []LotUsage
	TotalDeducted  decimal.Decimal
	Remaining      decimal.Decimal
	FullyFulfilled bool
}

// RecommendedLot is a read-only FEFO preview entry used by reporting
type RecommendedLot struct {
	Lot          IngredientLot
	UseQuantity  decimal.Decimal
	ExpiringSoon bool
}

// FindLotsToUse selects the lots available to serve a deduction: lots with
// remaining stock and a future expiry date, ordered by expiry date ascending
// with purchase date breaking ties (First-Expired-First-Out, then
// First-In-First-Out).
func FindLotsToUse(lots []IngredientLot, now time.Time) FEFOSelection {
	usable := make([]IngredientLot, 0, len(lots))
	total := decimal.Zero
	for _, lot := range lots {
		if lot.IsUsable(now) {
			usable = append(usable, lot)
			total = total.Add(lot.CurrentStock)
		}
	}

	sort.SliceStable(usable, func(i, j int) bool {
		if !usable[i].ExpiryDate.Equal(usable[j].ExpiryDate) {
			return usable[i].ExpiryDate.Before(usable[j].ExpiryDate)
		}
		if !usable[i].PurchaseDate.Equal(usable[j].PurchaseDate) {
			return usable[i].PurchaseDate.Before(usable[j].PurchaseDate)
		}
		return usable[i].CreatedAt.Before(usable[j].CreatedAt)
	})

	return FEFOSelection{Lots: usable, TotalAvailable: total}
}

// PlanDeduction walks the FEFO selection and computes how much to take from
// each lot until the requirement is met. The plan mutates nothing.
func PlanDeduction(selection FEFOSelection, required decimal.Decimal) (*DeductionPlan, error) {
	if required.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Required quantity must be positive")
	}

	plan := &DeductionPlan{
		Usages:    make([]LotUsage, 0),
		Remaining: required,
	}

	for _, lot := range selection.Lots {
		if plan.Remaining.IsZero() {
			break
		}
		if lot.CurrentStock.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(plan.Remaining, lot.CurrentStock)
		remainingInLot := lot.CurrentStock.Sub(take)
		status := LotPartiallyUsed
		if remainingInLot.IsZero() {
			status = LotFullyUsed
		}

		plan.Usages = append(plan.Usages, LotUsage{
			LotID:          lot.ID,
			ExpiryDate:     lot.ExpiryDate,
			Deducted:       take,
			RemainingInLot: remainingInLot,
			Status:         status,
		})
		plan.TotalDeducted = plan.TotalDeducted.Add(take)
		plan.Remaining = plan.Remaining.Sub(take)
	}

	plan.FullyFulfilled = plan.Remaining.IsZero()
	return plan, nil
}

// ApplyDeductionPlan executes a plan against the ingredient's real lots.
// The ingredient aggregate stock is resynchronized afterwards, keeping the
// CurrentStock == sum-of-lots invariant.
func ApplyDeductionPlan(ingredient *Ingredient, plan *DeductionPlan, now time.Time) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Deduction plan cannot be nil")
	}

	byID := make(map[uuid.UUID]*IngredientLot, len(ingredient.Lots))
	for idx := range ingredient.Lots {
		byID[ingredient.Lots[idx].ID] = &ingredient.Lots[idx]
	}

	for _, usage := range plan.Usages {
		lot, ok := byID[usage.LotID]
		if !ok {
			return shared.NewDomainError("LOT_NOT_FOUND", "Lot not found: "+usage.LotID.String())
		}
		deducted := lot.Deduct(usage.Deducted)
		if !deducted.Equal(usage.Deducted) {
			return shared.NewDomainError("DEDUCTION_MISMATCH", "Lot stock changed between planning and apply")
		}
	}

	ingredient.SyncStockFromLots(now)
	ingredient.AddDomainEvent(NewStockDeductedEvent(ingredient, plan))
	return nil
}

// GetRecommendedLots returns the FEFO preview for a required quantity
// without mutating anything, flagging lots that expire within seven days.
func GetRecommendedLots(lots []IngredientLot, required decimal.Decimal, now time.Time) []RecommendedLot {
	selection := FindLotsToUse(lots, now)

	recommended := make([]RecommendedLot, 0)
	remaining := required
	for _, lot := range selection.Lots {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		use := decimal.Min(remaining, lot.CurrentStock)
		recommended = append(recommended, RecommendedLot{
			Lot:          lot,
			UseQuantity:  use,
			ExpiringSoon: lot.ExpiresWithin(now, ExpiringSoonWindow),
		})
		remaining = remaining.Sub(use)
	}
	return recommended
}
