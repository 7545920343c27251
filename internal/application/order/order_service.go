package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	appinventory "github.com/tokoroti/backend/internal/application/inventory"
	"github.com/tokoroti/backend/internal/domain/catalog"
	"github.com/tokoroti/backend/internal/domain/order"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// OrderService owns every order mutation so that totals and stock side
// effects always travel together. Reads go through it too so outer surfaces
// never touch stock directly.
type OrderService struct {
	orderRepo      order.Repository
	productRepo    catalog.ProductRepository
	calculator     *appinventory.RequirementCalculator
	stock          *appinventory.StockService
	eventPublisher shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	productRepo catalog.ProductRepository,
	calculator *appinventory.RequirementCalculator,
	stock *appinventory.StockService,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		calculator:  calculator,
		stock:       stock,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *OrderService) publishDomainEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	o.ClearDomainEvents()
}

// resolveItems looks up catalog prices for the requested items. Names are
// matched exactly and case-insensitively; they were already disambiguated
// during the conversation, so an unknown name here is a warning, not a retry.
func (s *OrderService) resolveItems(ctx context.Context, items []RequestedItem) ([]order.Item, []string, error) {
	products, err := s.productRepo.FindAllActive(ctx)
	if err != nil {
		return nil, nil, err
	}

	resolved := make([]order.Item, 0, len(items))
	var warnings []string
	for _, item := range items {
		product := catalog.FindByExactName(products, item.Name)
		if product == nil {
			warnings = append(warnings, fmt.Sprintf("%s tidak ditemukan di katalog", item.Name))
			continue
		}
		resolved = append(resolved, order.Item{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
	}
	return resolved, warnings, nil
}

// CreateFromDraft builds the order from a completed draft, evaluates its
// stock posture and either reserves the ingredients (status New Order) or
// parks the order as Pending without reserving anything.
func (s *OrderService) CreateFromDraft(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	resolved, warnings, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "None of the requested products exist in the catalog")
	}

	o, err := order.NewOrder(req.CustomerID, req.CustomerName)
	if err != nil {
		return nil, err
	}
	for _, item := range resolved {
		if err := o.SetItem(item.ProductID, item.ProductName, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := o.SetDeliveryDetails(order.FulfillmentType(req.FulfillmentType), req.DeliveryDate, req.DeliveryAddress, req.PickupTime); err != nil {
		return nil, err
	}

	report, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, report.Warnings...)

	result := &CreateOrderResult{Warnings: warnings}
	if report.AllSufficient() {
		if err := s.stock.ReserveForOrder(ctx, report.Requirements); err != nil {
			return nil, err
		}
		result.Reserved = true
	} else {
		if err := o.MarkPending(report.Insufficient()); err != nil {
			return nil, err
		}
		result.Shortages = report.Insufficient()
	}

	o.AddDomainEvent(order.NewOrderCreatedEvent(o))
	if err := s.orderRepo.Save(ctx, o); err != nil {
		if result.Reserved {
			// roll the hold back so a failed save cannot strand reserved stock
			_ = s.stock.ReleaseForOrder(ctx, report.Requirements)
		}
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	result.Order = ToOrderResponse(o)
	return result, nil
}

// StartProcessing transitions the order to On Process: the FEFO deduction
// and the reservation release happen as one stock operation, and the per-lot
// usage trace is persisted on the order. A failed deduction leaves the order
// in its prior status.
func (s *OrderService) StartProcessing(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(order.StatusOnProcess) {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing order in %s status", o.Status))
	}

	report, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
	if err != nil {
		return nil, err
	}
	usages, err := s.stock.ConvertReservationToDeduction(ctx, report.Requirements)
	if err != nil {
		return nil, err
	}

	if err := o.StartProcessing(toLotUsageRecords(usages)); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Complete marks an On Process order as finished
func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Complete(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels the order and releases its reservation when one exists.
// Nothing was consumed yet, so no lot is touched; the release is idempotent.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	hadReservation := o.HasReservation()
	if err := o.Cancel(reason); err != nil {
		return nil, err
	}

	if hadReservation {
		report, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
		if err != nil {
			return nil, err
		}
		if err := s.stock.ReleaseForOrder(ctx, report.Requirements); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateStatus dispatches a requested transition to the matching operation
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req StatusUpdateRequest) (*OrderResponse, error) {
	switch order.Status(req.Status) {
	case order.StatusOnProcess:
		return s.StartProcessing(ctx, orderID)
	case order.StatusCompleted:
		return s.Complete(ctx, orderID)
	case order.StatusCancelled:
		return s.Cancel(ctx, orderID, req.Reason)
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Cannot transition to %q", req.Status))
	}
}

// ProposeEdit computes the item list an edit would produce, purely in
// memory: existing items, minus removals, plus or overwritten by the newly
// requested items. The order itself is never written here.
func (s *OrderService) ProposeEdit(ctx context.Context, orderID uuid.UUID, req EditOrderRequest) (*EditProposal, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit order in %s status", o.Status))
	}

	// work on a detached copy so the loaded aggregate stays pristine
	draft := *o
	draft.Items = make([]order.Item, len(o.Items))
	copy(draft.Items, o.Items)

	for _, name := range req.RemoveItems {
		if err := draft.RemoveItem(name); err != nil {
			return nil, err
		}
	}

	resolved, warnings, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	for _, item := range resolved {
		if err := draft.SetItem(item.ProductID, item.ProductName, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}

	proposal := &EditProposal{
		OrderID:  o.ID,
		Subtotal: draft.Subtotal,
		Tax:      draft.Tax,
		Total:    draft.Total,
		Warnings: warnings,
	}
	for _, item := range draft.Items {
		proposal.Items = append(proposal.Items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount(),
		})
	}
	return proposal, nil
}

// ApplyEdit persists a confirmed edit. For an order holding a reservation
// the old hold is released and a new one is taken for the edited items; if
// the new hold cannot be met, the old one is restored and the edit rejected,
// leaving the order exactly as it was.
func (s *OrderService) ApplyEdit(ctx context.Context, orderID uuid.UUID, req EditOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() || o.Status == order.StatusOnProcess {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit order in %s status", o.Status))
	}

	proposal, err := s.ProposeEdit(ctx, orderID, req)
	if err != nil {
		return nil, err
	}
	newItems := make([]order.Item, 0, len(proposal.Items))
	for _, item := range proposal.Items {
		newItems = append(newItems, order.Item{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	oldReport, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
	if err != nil {
		return nil, err
	}

	if err := o.ReplaceItems(newItems); err != nil {
		return nil, err
	}
	if req.HasDeliveryChanges() {
		fulfillment := o.FulfillmentType
		if req.FulfillmentType != "" {
			fulfillment = order.FulfillmentType(req.FulfillmentType)
		}
		deliveryDate := o.DeliveryDate
		if req.DeliveryDate != nil {
			deliveryDate = req.DeliveryDate
		}
		address := o.DeliveryAddress
		if req.DeliveryAddress != "" {
			address = req.DeliveryAddress
		}
		pickupTime := o.PickupTime
		if req.PickupTime != "" {
			pickupTime = req.PickupTime
		}
		if err := o.SetDeliveryDetails(fulfillment, deliveryDate, address, pickupTime); err != nil {
			return nil, err
		}
	}

	if o.HasReservation() {
		newReport, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
		if err != nil {
			return nil, err
		}
		if err := s.stock.ReleaseForOrder(ctx, oldReport.Requirements); err != nil {
			return nil, err
		}
		if err := s.stock.ReserveForOrder(ctx, newReport.Requirements); err != nil {
			// restore the original hold so the stored order stays consistent
			if restoreErr := s.stock.ReserveForOrder(ctx, oldReport.Requirements); restoreErr != nil {
				// stock moved between release and restore; the stored order
				// can no longer hold its reservation, so park it until a
				// replenishment retries it
				if parkErr := s.parkStoredOrder(ctx, orderID); parkErr != nil {
					return nil, errors.Join(err, restoreErr, parkErr)
				}
				return nil, errors.Join(err, restoreErr)
			}
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// parkStoredOrder reloads the persisted order and marks it Pending, pairing
// the stored status with the fact that no reservation backs it anymore.
func (s *OrderService) parkStoredOrder(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	report, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
	if err != nil {
		return err
	}
	if err := o.MarkPending(report.Insufficient()); err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return err
	}
	s.publishDomainEvents(ctx, o)
	return nil
}

// RetryPending re-evaluates every Pending order, reserving stock and moving
// the order back to New Order when availability now allows it. Runs after
// each replenishment. Returns the orders that were accepted.
func (s *OrderService) RetryPending(ctx context.Context) ([]OrderResponse, error) {
	pending, err := s.orderRepo.FindByStatus(ctx, order.StatusPending)
	if err != nil {
		return nil, err
	}

	accepted := make([]OrderResponse, 0)
	for idx := range pending {
		o := &pending[idx]
		report, err := s.calculator.Calculate(ctx, toOrderedItems(o.Items))
		if err != nil {
			return accepted, err
		}
		if !report.AllSufficient() {
			continue
		}
		if err := s.stock.ReserveForOrder(ctx, report.Requirements); err != nil {
			continue
		}
		if err := o.Accept(); err != nil {
			_ = s.stock.ReleaseForOrder(ctx, report.Requirements)
			continue
		}
		if err := s.orderRepo.Save(ctx, o); err != nil {
			_ = s.stock.ReleaseForOrder(ctx, report.Requirements)
			return accepted, err
		}
		s.publishDomainEvents(ctx, o)
		accepted = append(accepted, ToOrderResponse(o))
	}
	return accepted, nil
}

// GetByID returns one order
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// ListActiveByCustomer returns the customer's non-terminal orders
func (s *OrderService) ListActiveByCustomer(ctx context.Context, customerID string) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	responses := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToOrderResponse(&orders[idx]))
	}
	return responses, nil
}

// List returns orders matching the filter
func (s *OrderService) List(ctx context.Context, filter shared.Filter) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToOrderResponse(&orders[idx]))
	}
	return responses, nil
}
