package controllers

import (
	"net/http"

	"github.com/threadline-io/threadline-backend/api/responses"
	"github.com/threadline-io/threadline-backend/api/validators"
	checkoutsvc "github.com/threadline-io/threadline-backend/internal/checkout"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
)

// Checkout converts the selected cart lines into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutsvc.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
