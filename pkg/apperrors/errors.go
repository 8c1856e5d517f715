package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("tenant access denied")
	ErrValidation         = errors.New("validation failed")
	ErrTenantMismatch     = errors.New("tenant id inconsistent with parent record")
	ErrInferenceExhausted = errors.New("inference chain produced no value")
	ErrTenantDeactivated  = errors.New("tenant is deactivated")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNoTenantAssigned   = errors.New("caller has no assigned tenant")
)
