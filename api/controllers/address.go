package controllers

import (
	"net/http"

	"github.com/nino-0813/honma-ec-sub000/api/responses"
	"github.com/nino-0813/honma-ec-sub000/internal/address"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
)

// LookupAddress resolves a postal code to prefecture/city/town so the
// storefront can prefill the shipping form.
func LookupAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		postalCode := r.URL.Query().Get("postal_code")
		if postalCode == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "郵便番号は7桁の数字で入力してください。"))
			return
		}
		resolved, err := svc.Resolve(ctx, postalCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
