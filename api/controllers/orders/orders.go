package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/globelconnect/esim-backend/api/responses"
	"github.com/globelconnect/esim-backend/api/validators"
	internalorders "github.com/globelconnect/esim-backend/internal/orders"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
)

// Create places a single-unit order. The body is {planCode, email}; the
// response is the flat order result rather than the data envelope.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var input internalorders.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			details := any(nil)
			if typed := pkgerrors.As(err); typed != nil {
				details = typed.Details()
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, internalorders.InputRequiredMessage).WithDetails(details))
			return
		}

		result, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

// Profiles polls the vendor once for the profiles allocated to an order.
func Profiles(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		result, err := svc.GetProfiles(r.Context(), chi.URLParam(r, "orderNo"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}
