// Package testhelpers provides shared fixtures for integration tests.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GenerateTestJWT creates an unsigned token (alg none) carrying the role and
// tenant claims the auth layer reads. Only usable when signature
// verification is disabled.
func GenerateTestJWT(sub, role string, tenantIDs ...uuid.UUID) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	tids := make([]string, len(tenantIDs))
	for i, id := range tenantIDs {
		tids[i] = id.String()
	}
	payload, _ := json.Marshal(map[string]any{
		"sub":  sub,
		"role": role,
		"tids": tids,
	})

	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString(payload))
}

// GenerateTestJWTWithBearer returns the token with the "Bearer " prefix for
// the Authorization header.
func GenerateTestJWTWithBearer(sub, role string, tenantIDs ...uuid.UUID) string {
	return "Bearer " + GenerateTestJWT(sub, role, tenantIDs...)
}
