package domain

import (
	"fmt"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
)

// Actor is the authenticated caller together with its organization context,
// as provided by the surrounding auth layer.
type Actor struct {
	UserID         string `json:"userID"`
	OrganizationID string `json:"organizationID"`
	TenantID       string `json:"tenantID"`
}

// Validate checks that the identity is complete.
func (a Actor) Validate() error {
	if a.UserID == "" || a.OrganizationID == "" || a.TenantID == "" {
		return fmt.Errorf("%w: actor user, organization and tenant are required", apperrors.ErrValidation)
	}
	return nil
}
