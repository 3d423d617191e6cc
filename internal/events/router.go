package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/commsvc/call-routing-backend/pkg/logger"
	"github.com/commsvc/call-routing-backend/pkg/metrics"
)

// Redirector issues the actual call-control command. Satisfied by
// acs.CallAutomationClient.
type Redirector interface {
	RedirectCall(ctx context.Context, incomingCallContext, targetRawID string) error
}

// Router classifies webhook event batches and redirects external incoming
// calls to the configured target participant.
type Router struct {
	redirector     Redirector
	redirectTarget string
	nativePrefix   string
}

func NewRouter(redirector Redirector, redirectTarget, nativePrefix string) *Router {
	return &Router{
		redirector:     redirector,
		redirectTarget: redirectTarget,
		nativePrefix:   nativePrefix,
	}
}

// Result is the outcome of processing one delivery batch.
type Result struct {
	// ValidationCode is set when the batch contained a subscription
	// validation handshake; the caller must echo it back and stop.
	ValidationCode string
}

// Process walks the batch in delivery order. A subscription-validation
// handshake short-circuits the rest of the batch. Incoming calls to
// platform-native callees are acknowledged without action; all other
// incoming calls are redirected to the configured target. Unknown event
// types and unparsable payloads are logged and skipped.
func (r *Router) Process(ctx context.Context, batch []Event) (Result, error) {
	for _, ev := range batch {
		metrics.EventsReceived.WithLabelValues(ev.EventType).Inc()

		switch ev.EventType {
		case TypeSubscriptionValidation:
			logger.Info("validating subscription")
			var data subscriptionValidationData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				return Result{}, fmt.Errorf("parse validation event: %w", err)
			}
			return Result{ValidationCode: data.ValidationCode}, nil

		case TypeIncomingCall:
			if err := r.handleIncomingCall(ctx, ev); err != nil {
				return Result{}, err
			}

		default:
			logger.Infof("ignoring event type: %s", ev.EventType)
		}
	}
	return Result{}, nil
}

func (r *Router) handleIncomingCall(ctx context.Context, ev Event) error {
	var data incomingCallData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		logger.Warnf("unparsable incoming-call event %s: %v", ev.ID, err)
		return nil
	}
	logger.Infof("incoming call from %s to %s", data.From.DisplayID(), data.To.DisplayID())

	if strings.HasPrefix(data.To.RawID, r.nativePrefix) {
		logger.Infof("incoming call to platform user %s, not redirecting", data.To.RawID)
		metrics.CallsRedirected.WithLabelValues("native").Inc()
		return nil
	}
	if data.IncomingCallContext == "" {
		logger.Warnf("incoming-call event %s missing call context, skipping", ev.ID)
		return nil
	}

	logger.Infof("redirecting call to %s", r.redirectTarget)
	if err := r.redirector.RedirectCall(ctx, data.IncomingCallContext, r.redirectTarget); err != nil {
		metrics.CallsRedirected.WithLabelValues("error").Inc()
		return fmt.Errorf("redirect incoming call: %w", err)
	}
	metrics.CallsRedirected.WithLabelValues("redirected").Inc()
	return nil
}
