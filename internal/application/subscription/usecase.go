package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/delegate-expiry/internal/application"
	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/event"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	subscriptionService = "subscription-service"
	useCaseRegister     = "subscription.register"
	spanPrefix          = "UC."
	registerSpanName    = "Register"

	KindExpiring  = "expiring"
	KindPermanent = "permanent"
)

var ErrEmptyEvent = errors.New("subscription: event name is required")

// Command asks for d to be registered under Event. When Expires is set the
// registration is wrapped so it stops delivering TTL after registration; TTL is
// truncated to whole milliseconds and zero means it never delivers.
type Command[A any] struct {
	Event    string
	Delegate delegate.Delegate[A]
	Expires  bool
	TTL      time.Duration
}

// Result describes the registration. ExpiresAt is zero for permanent subscriptions.
type Result struct {
	Event     string
	Kind      string
	ExpiresAt time.Time
}

var _ application.UseCase[Command[struct{}], *Result] = (*RegisterUseCase[struct{}])(nil)

type RegisterUseCase[A any] struct {
	subscriber   event.Subscriber[A]
	clock        delegate.Clock
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	registered   observability.Counter
}

func NewRegisterUseCase[A any](subscriber event.Subscriber[A], clock delegate.Clock, tel observability.Observability) *RegisterUseCase[A] {
	if tel == nil {
		tel = observability.Nop()
	}
	if clock == nil {
		clock = delegate.SystemClock{}
	}
	metricsProvider := tel.Metrics()
	return &RegisterUseCase[A]{
		subscriber:   subscriber,
		clock:        clock,
		log:          tel.Logger().With(observability.F("service", subscriptionService)),
		tracer:       tel.Tracer(),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		registered:   metricsProvider.Counter(observability.MSubscriptionsRegistered),
	}
}

// Execute registers the delegate. The subscriber stores its own copy, so the
// decorator built here is destroyed before returning.
func (uc *RegisterUseCase[A]) Execute(ctx context.Context, cmd Command[A]) (_ *Result, err error) {
	kind := KindPermanent
	if cmd.Expires {
		kind = KindExpiring
	}
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseRegister),
		observability.F("event", cmd.Event),
		observability.F("kind", kind),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+registerSpanName,
		attribute.String("use_case", useCaseRegister),
		attribute.String("event", cmd.Event),
		attribute.String("subscription.kind", kind),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &Result{Event: cmd.Event, Kind: kind}

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseRegister),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(latency, observability.L("use_case", useCaseRegister))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		if cmd.Expires {
			fields = append(fields,
				observability.F("ttl_ms", cmd.TTL.Milliseconds()),
				observability.F("expires_at", result.ExpiresAt),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.Event == "" {
		outcome, statusText = "error", "INVALID_COMMAND"
		return nil, ErrEmptyEvent
	}

	d := cmd.Delegate
	if cmd.Expires {
		var e *delegate.Expire[A]
		e, err = delegate.NewExpire(cmd.Delegate, cmd.TTL.Milliseconds(), delegate.WithClock(uc.clock))
		if err != nil {
			outcome, statusText = "error", "INVALID_COMMAND"
			return nil, fmt.Errorf("subscription: wrap delegate: %w", err)
		}
		defer e.Destroy()
		result.ExpiresAt = e.ExpiresAt()
		d = e
	}

	if err = uc.subscriber.Subscribe(cmd.Event, d); err != nil {
		outcome, statusText = "error", "SUBSCRIBE_FAILED"
		return nil, fmt.Errorf("subscription: subscribe: %w", err)
	}

	uc.registered.Add(1,
		observability.L("event", cmd.Event),
		observability.L("kind", kind),
	)
	return result, nil
}

// Cancel removes the subscription registered with d, expiring or not.
func (uc *RegisterUseCase[A]) Cancel(ctx context.Context, eventName string, d delegate.Delegate[A]) bool {
	removed := uc.subscriber.Unsubscribe(eventName, d)
	logctx.FromOr(ctx, uc.log).Info("subscription_cancelled",
		observability.F("event", eventName),
		observability.F("removed", removed),
	)
	return removed
}
