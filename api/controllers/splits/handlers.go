// Package splits exposes the split save/fetch HTTP surface.
package splits

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit-backend/api/responses"
	"github.com/tabsplit/tabsplit-backend/api/validators"
	splitsvc "github.com/tabsplit/tabsplit-backend/internal/splits"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
)

// SplitFetch returns the saved split for a receipt. No saved split is a 404;
// the SDK client translates that into "no existing split" rather than an
// error state.
func SplitFetch(svc splitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "splits service unavailable"))
			return
		}

		receiptID, err := uuid.Parse(chi.URLParam(r, "receiptId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}

		rec, err := svc.Fetch(r.Context(), receiptID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no split saved for receipt"))
			return
		}

		responses.WriteSuccess(w, rec)
	}
}

// SplitSave replaces the receipt's split with the submitted one.
func SplitSave(svc splitsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "splits service unavailable"))
			return
		}

		receiptID := chi.URLParam(r, "receiptId")
		if _, err := uuid.Parse(receiptID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}

		var payload saveSplitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.Save(r.Context(), payload.toEngineRequest(receiptID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rec)
	}
}
