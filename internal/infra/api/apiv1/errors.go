package apiv1

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/infra/logging"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound, domain.KindTargetNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindInactiveCode, domain.KindExpiredCode, domain.KindUnsupportedStatus:
		return http.StatusUnprocessableEntity
	case domain.KindGlobalLimitReached, domain.KindActorLimitReached, domain.KindAlreadyEntitled, domain.KindAlreadyExists:
		return http.StatusConflict
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the error taxonomy. Internal details are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	var body errorBody
	body.Error.Code = string(kind)
	body.Error.Message = err.Error()
	if status == http.StatusInternalServerError {
		body.Error.Code = string(domain.KindInternal)
		body.Error.Message = "internal error"
		logging.With(r.Context(), log).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	var body errorBody
	body.Error.Code = string(domain.KindInvalidArgument)
	body.Error.Message = msg
	writeJSON(w, http.StatusBadRequest, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
