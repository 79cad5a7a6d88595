package apiv1

import (
	"encoding/json"
	"net/http"
	"time"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/infra/api"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
	red "lineup-entitlements/internal/infra/redis"
	"lineup-entitlements/internal/usecase"
)

type redeemRequest struct {
	Code       string `json:"code"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
}

type redeemResponse struct {
	RedemptionID string    `json:"redemption_id"`
	Code         string    `json:"code"`
	TargetKind   string    `json:"target_kind"`
	TargetID     string    `json:"target_id"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := api.ActorFrom(ctx)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.RedeemKey(actor.ID), s.cfg.RedeemRateLimit, s.cfg.RedeemRateWindow)
		if err != nil {
			// fail open: the limiter guards brute force, not correctness
			logging.With(ctx, s.log).Warn().Err(err).Msg("redeem rate limiter unavailable")
		} else if !ok {
			metrics.IncRateLimitTriggered("redeem")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]string{"code": "rate_limited", "message": "too many redemption attempts"},
			})
			return
		}
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	kind, err := model.ParseTargetKind(req.TargetKind)
	if err != nil {
		writeBadRequest(w, "invalid target_kind")
		return
	}

	// Organizations renew on top of an active window and are limited per
	// target; teams may not stack and are limited per actor.
	stacking, scope := false, usecase.LimitByActor
	if kind == model.TargetOrganization {
		stacking, scope = true, usecase.LimitByTarget
	}
	actorID := actor.ID
	res, err := s.uc.Redemption.Redeem(ctx, usecase.RedeemRequest{
		ActorID:       &actorID,
		ActorEmail:    actor.Email,
		Code:          req.Code,
		Target:        model.TargetRef{Kind: kind, ID: req.TargetID},
		AllowStacking: stacking,
		LimitScope:    scope,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{
		RedemptionID: res.RedemptionID,
		Code:         res.Code,
		TargetKind:   string(res.Target.Kind),
		TargetID:     res.Target.ID,
		Status:       string(res.Status),
		ExpiresAt:    res.NewExpiry,
	})
}
