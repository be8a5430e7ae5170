// Package service contains the application's business logic.
package service

import "photoshare/internal/models"

// RequireOwner succeeds when requester is owner, compared by canonical form.
func RequireOwner(owner, requester models.ID) error {
	if owner.Equal(requester) {
		return nil
	}
	return models.NewPermissionDeniedError("You do not own this resource")
}

func requireRequester(requester models.ID) error {
	if requester.IsZero() {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}
