package services

import (
	"context"
	"fmt"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// callerFromContext extracts the authenticated caller placed on the request
// context by the auth middleware. Service methods never run without one.
func callerFromContext(ctx context.Context) (tenancy.Caller, error) {
	caller, ok := tenancy.GetCaller(ctx)
	if !ok {
		return tenancy.Caller{}, fmt.Errorf("%w: no caller on context", apperrors.ErrForbidden)
	}
	return caller, nil
}
