package transport

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"checkout/pkg/domain/model"
	"checkout/pkg/domain/service"
	"checkout/pkg/gateway/razorpay"
)

// statusFor maps the error taxonomy onto HTTP classes. The source system
// answered 500 for every business failure; proper classes won out here.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrEmptyItems),
		errors.Is(err, model.ErrMissingAddress),
		errors.Is(err, model.ErrMissingPaymentFields),
		errors.Is(err, service.ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, razorpay.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
}

func writeVerifyError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error(), "success": false})
}
