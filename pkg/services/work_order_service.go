package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/inference"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/kpi"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/repositories"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// WorkOrderAge is one open order's WIP age in hours, with hold intervals
// subtracted.
type WorkOrderAge struct {
	WorkOrderID uuid.UUID       `json:"work_order_id"`
	Code        string          `json:"code"`
	Status      string          `json:"status"`
	AgeHours    decimal.Decimal `json:"age_hours"`
}

// WorkOrderService manages the work order lifecycle: creation, progress
// updates, hold/resume, and delivery. Delivery KPIs and WIP aging read
// through it.
type WorkOrderService interface {
	Create(ctx context.Context, order *models.WorkOrder) error
	Update(ctx context.Context, order *models.WorkOrder) error
	Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context) ([]*models.WorkOrder, error)
	Hold(ctx context.Context, id uuid.UUID, reason string) error
	Resume(ctx context.Context, id uuid.UUID) error
	// Deliver marks the order delivered at the given time and moves it to
	// shipped or partially shipped depending on quantities.
	Deliver(ctx context.Context, id uuid.UUID, deliveredAt time.Time, qtyShipped int64) error
	// WIPAges returns the current age of every open order visible to the
	// caller, oldest first.
	WIPAges(ctx context.Context) ([]WorkOrderAge, error)
}

type workOrderService struct {
	orders   repositories.WorkOrderRepository
	products repositories.ProductRepository
	shifts   repositories.ShiftRepository
	tenants  repositories.TenantRepository
	resolver *inference.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkOrderService creates a work order service.
func NewWorkOrderService(
	orders repositories.WorkOrderRepository,
	products repositories.ProductRepository,
	shifts repositories.ShiftRepository,
	tenants repositories.TenantRepository,
	resolver *inference.Resolver,
	logger *zap.Logger,
) WorkOrderService {
	return &workOrderService{
		orders:   orders,
		products: products,
		shifts:   shifts,
		tenants:  tenants,
		resolver: resolver,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *workOrderService) authorize(ctx context.Context, tenantID uuid.UUID) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	return tenancy.VerifyAccess(caller, tenantID)
}

func (s *workOrderService) Create(ctx context.Context, order *models.WorkOrder) error {
	if err := order.Validate(); err != nil {
		return err
	}
	if err := s.authorize(ctx, order.TenantID); err != nil {
		return err
	}
	tenant, err := s.tenants.Get(ctx, order.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tenant.Active {
		return fmt.Errorf("%w: %s", apperrors.ErrTenantDeactivated, order.TenantID)
	}
	return s.orders.Create(ctx, order)
}

func (s *workOrderService) Update(ctx context.Context, order *models.WorkOrder) error {
	if err := order.Validate(); err != nil {
		return err
	}
	existing, err := s.orders.Get(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, existing.TenantID); err != nil {
		return err
	}
	if order.TenantID != existing.TenantID {
		return fmt.Errorf("%w: order tenant cannot change", apperrors.ErrValidation)
	}
	return s.orders.Update(ctx, order)
}

func (s *workOrderService) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, order.TenantID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *workOrderService) List(ctx context.Context) ([]*models.WorkOrder, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}
	return s.orders.List(ctx, pred)
}

// Hold pauses an order. WIP aging freezes for the duration of the hold.
func (s *workOrderService) Hold(ctx context.Context, id uuid.UUID, reason string) error {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, order.TenantID); err != nil {
		return err
	}
	if order.Status == models.OrderStatusOnHold {
		return fmt.Errorf("%w: order already on hold", apperrors.ErrConflict)
	}
	if models.IsTerminalOrderStatus(order.Status) || order.Status == models.OrderStatusCancelled {
		return fmt.Errorf("%w: cannot hold a closed order", apperrors.ErrValidation)
	}

	hold := &models.HoldEntry{
		TenantID:    order.TenantID,
		WorkOrderID: order.ID,
		HeldAt:      s.now(),
		Reason:      reason,
	}
	if err := s.orders.AddHold(ctx, hold); err != nil {
		return err
	}
	order.Status = models.OrderStatusOnHold
	return s.orders.Update(ctx, order)
}

func (s *workOrderService) Resume(ctx context.Context, id uuid.UUID) error {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, order.TenantID); err != nil {
		return err
	}
	if order.Status != models.OrderStatusOnHold {
		return fmt.Errorf("%w: order is not on hold", apperrors.ErrValidation)
	}
	if err := s.orders.ResumeHold(ctx, order.ID, s.now()); err != nil {
		return err
	}
	order.Status = models.OrderStatusInProgress
	return s.orders.Update(ctx, order)
}

func (s *workOrderService) Deliver(ctx context.Context, id uuid.UUID, deliveredAt time.Time, qtyShipped int64) error {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, order.TenantID); err != nil {
		return err
	}
	if qtyShipped <= 0 {
		return fmt.Errorf("%w: qty_shipped must be positive", apperrors.ErrValidation)
	}
	if qtyShipped > order.QtyOrdered {
		return fmt.Errorf("%w: qty_shipped exceeds qty_ordered", apperrors.ErrValidation)
	}

	order.QtyShipped = qtyShipped
	order.DeliveredAt = &deliveredAt
	if qtyShipped < order.QtyOrdered {
		order.Status = models.OrderStatusPartiallyShipped
	} else {
		order.Status = models.OrderStatusShipped
	}
	s.logger.Info("work order delivered",
		zap.String("work_order_id", order.ID.String()),
		zap.String("status", order.Status),
		zap.Int64("qty_shipped", qtyShipped))
	return s.orders.Update(ctx, order)
}

func (s *workOrderService) WIPAges(ctx context.Context) ([]WorkOrderAge, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOpen(ctx, pred)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ages := make([]WorkOrderAge, 0, len(orders))
	for _, order := range orders {
		holds, err := s.orders.ListHolds(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		ages = append(ages, WorkOrderAge{
			WorkOrderID: order.ID,
			Code:        order.Code,
			Status:      order.Status,
			AgeHours:    kpi.WIPAge(now, order.StartDate, holds),
		})
	}
	return ages, nil
}

// deliveryForOrder resolves an order's promised date through the inference
// chain and shapes it for the OTD calculator. Shared with the dashboard.
func deliveryForOrder(ctx context.Context, resolver *inference.Resolver, order *models.WorkOrder, product *models.Product, shiftHours decimal.Decimal) (kpi.OrderDelivery, error) {
	var declared *decimal.Decimal
	family := ""
	if product != nil {
		declared = product.IdealCycleTimeHours
		family = product.Family
	}
	promised, err := resolver.InferPromisedDate(ctx, inference.PromisedDateInput{
		TenantID:             order.TenantID,
		ProductID:            order.ProductID,
		ProductFamily:        family,
		Units:                order.QtyOrdered,
		StartDate:            order.StartDate,
		PlannedShipDate:      order.PlannedShipDate,
		ContractRequiredDate: order.ContractRequiredDate,
		DeclaredCycleTime:    declared,
		ShiftHours:           shiftHours,
	})
	if err != nil {
		return kpi.OrderDelivery{}, err
	}
	return kpi.OrderDelivery{
		Promised:         promised.Date,
		PromisedInferred: promised.WasInferred(),
		Confidence:       promised.Confidence,
		DeliveredAt:      order.DeliveredAt,
		Status:           order.Status,
	}, nil
}

var _ WorkOrderService = (*workOrderService)(nil)
