package apiv1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
	"lineup-entitlements/internal/infra/payment"
)

const maxWebhookBody = 1 << 20

type webhookResponse struct {
	Received       bool   `json:"received"`
	Outcome        string `json:"outcome"`
	PaymentEventID string `json:"payment_event_id,omitempty"`
}

// handlePaymentWebhook answers 2xx for everything the gateway must not
// redeliver, and 5xx only when a retry can succeed.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.With(r.Context(), s.log)
	done := func(result, reason string) {
		metrics.WebhookRequests.WithLabelValues(result, reason).Inc()
		metrics.WebhookDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		done("fail", "bad_payload")
		writeBadRequest(w, "unreadable body")
		return
	}
	if err := payment.VerifySignature(s.cfg.WebhookSecret, body, r.Header.Get(s.cfg.SignatureHeader)); err != nil {
		done("fail", "bad_signature")
		log.Warn().Msg("webhook signature rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"code": "unauthorized", "message": err.Error()}})
		return
	}

	pc, err := payment.ParseEvent(body)
	switch {
	case errors.Is(err, payment.ErrIgnoredEvent):
		done("ok", "ignored_type")
		log.Debug().Err(err).Str("gateway_event_id", pc.GatewayEventID).Msg("webhook event ignored")
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: "ignored"})
		return
	case err != nil:
		done("fail", "bad_payload")
		log.Warn().Err(err).Msg("malformed webhook payload")
		writeBadRequest(w, err.Error())
		return
	}

	res, err := s.uc.Reconciliation.Reconcile(r.Context(), pc)
	if errors.Is(err, domain.ErrUnsupportedStatus) {
		// nothing to apply; redelivery would fail the same way
		done("ok", "unsupported_status")
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Outcome: "ignored"})
		return
	}
	if err != nil {
		done("fail", "reconcile_error")
		writeError(w, r, s.log, err)
		return
	}

	done("ok", string(res.Outcome))
	writeJSON(w, http.StatusOK, webhookResponse{
		Received:       true,
		Outcome:        string(res.Outcome),
		PaymentEventID: res.PaymentEventID,
	})
}
