package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/repositories"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// TenantService manages tenant provisioning. Provisioning and deactivation
// are admin operations; reads follow the caller's predicate.
type TenantService interface {
	Provision(ctx context.Context, tenant *models.Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	// Deactivate flags a tenant inactive. Its data stays; new writes into
	// it are refused.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type tenantService struct {
	tenants repositories.TenantRepository
	logger  *zap.Logger
}

// NewTenantService creates a tenant service.
func NewTenantService(tenants repositories.TenantRepository, logger *zap.Logger) TenantService {
	return &tenantService{tenants: tenants, logger: logger}
}

func requireAdmin(ctx context.Context) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if caller.Role != tenancy.RoleAdmin {
		return fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)
	}
	return nil
}

func (s *tenantService) Provision(ctx context.Context, tenant *models.Tenant) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if tenant.Name == "" {
		return fmt.Errorf("%w: tenant name is required", apperrors.ErrValidation)
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return err
	}
	s.logger.Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("name", tenant.Name))
	return nil
}

func (s *tenantService) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := tenancy.VerifyAccess(caller, tenant.ID); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}
	return s.tenants.List(ctx, pred)
}

func (s *tenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.tenants.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tenant deactivated", zap.String("tenant_id", id.String()))
	return nil
}

var _ TenantService = (*tenantService)(nil)
