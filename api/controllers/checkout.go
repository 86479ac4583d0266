package controllers

import (
	"net/http"

	"github.com/chiecouture/storefront-backend/api/responses"
	checkoutsvc "github.com/chiecouture/storefront-backend/internal/checkout"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
)

// Checkout converts the buyer's cart into an order. When the order commits
// but the invoice email fails, the error response still carries the order id
// so the client can recover.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
