package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

// DefaultCompletionMethod is the payment method tag sent on the backend
// completion mutation.
const DefaultCompletionMethod = "standard-payment"

// Config wires one checkout session. The session object is constructed
// explicitly and handed over by ownership; there is no ambient lookup.
type Config struct {
	SessionID string
	Session   SessionManager
	Backend   BackendAPI
	Store     SessionStore

	// CompletionMethod defaults to DefaultCompletionMethod.
	CompletionMethod string
	// MarkerClearDelay defaults to DefaultMarkerClearDelay.
	MarkerClearDelay time.Duration
}

// Orchestrator composes assembler, session manager, completion guard and
// reconciler for one checkout session: assemble on start, drive the
// provider session, dedupe the two completion triggers, reconcile the
// backend order state, own teardown.
type Orchestrator struct {
	id         string
	session    SessionManager
	backend    BackendAPI
	store      SessionStore
	assembler  *DataAssembler
	reconciler *OrderReconciler
	guard      *CompletionGuard
	selector   *PaymentMethodSelector
	method     string

	mu      sync.Mutex
	payload models.CheckoutPayload
	result  *models.OrderCompletionResult
	effects []models.Effect
	started bool
	torn    bool
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}

	method := cfg.CompletionMethod
	if method == "" {
		method = DefaultCompletionMethod
	}

	reconciler := NewOrderReconciler(cfg.Backend, cfg.Store, cfg.SessionID)
	if cfg.MarkerClearDelay > 0 {
		reconciler.markerDelay = cfg.MarkerClearDelay
	}

	return &Orchestrator{
		id:         cfg.SessionID,
		session:    cfg.Session,
		backend:    cfg.Backend,
		store:      cfg.Store,
		assembler:  NewDataAssembler(cfg.Backend, cfg.Store, cfg.SessionID),
		reconciler: reconciler,
		guard:      NewCompletionGuard(),
		selector:   NewPaymentMethodSelector(),
		method:     method,
		payload:    models.DefaultCheckoutPayload(),
	}, nil
}

func (o *Orchestrator) SessionID() string {
	return o.id
}

func (o *Orchestrator) Selector() *PaymentMethodSelector {
	return o.selector
}

// State exposes the provider session's current lifecycle state.
func (o *Orchestrator) State() models.SessionState {
	return o.session.State()
}

// Start assembles the payload, configures and injects the provider session,
// and launches the challenge watch. A failed injection leaves the session
// configured, so Start may be called again to retry.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.torn {
		o.mu.Unlock()
		return models.ErrSessionClosed
	}
	o.mu.Unlock()

	payload, err := o.assembler.Assemble(ctx, models.DefaultCheckoutPayload())
	if err != nil {
		var fetchErr *models.DataFetchError
		if !errors.As(err, &fetchErr) {
			return err
		}
		// Both fetches failed; carry on with the untouched defaults.
		log.Printf("Session %s: %v; continuing with default payload", o.id, err)
	}

	o.mu.Lock()
	o.payload = payload
	o.mu.Unlock()

	if err := o.session.Configure(ctx, payload.Customer); err != nil {
		return err
	}
	if err := o.session.Inject(ctx); err != nil {
		return err
	}
	o.recordState()

	o.mu.Lock()
	alreadyStarted := o.started
	o.started = true
	o.mu.Unlock()

	// The challenge verification runs independently of any user action and
	// may resolve long after this request returns.
	if !alreadyStarted {
		go o.watchChallenge()
	}
	return nil
}

func (o *Orchestrator) watchChallenge() {
	o.session.BeginChallengeWatch()

	result, err := o.session.VerifyChallenge(context.Background())
	if err != nil {
		if !errors.Is(err, models.ErrSessionClosed) {
			log.Printf("Session %s: challenge verification failed: %v", o.id, err)
		}
		return
	}
	if result == nil {
		return
	}
	log.Printf("Session %s: challenge resolved with status %s", o.id, result.Status)
	if result.Status == types.ChallengeSuccess {
		o.complete(context.Background(), TriggerChallenge)
	}
}

// Pay is the explicit completion trigger. When the caller provides no
// selection the multi-method selector is consulted; with nothing selected
// there either, the payment runs as the inline widget flow.
func (o *Orchestrator) Pay(ctx context.Context, selection models.PaymentSelection) (*types.PaymentOutcome, error) {
	if selection.IsZero() {
		if resolved, ok := o.selector.Resolve(); ok {
			selection = resolved
		}
	}

	o.mu.Lock()
	payload := o.payload
	o.mu.Unlock()

	outcome, err := o.session.Pay(ctx, selection, payload)
	o.recordState()
	if err != nil {
		return nil, err
	}

	o.complete(ctx, TriggerExplicitPay)
	return outcome, nil
}

// HandleChallengeResult is the entry point for challenge outcomes that
// arrive via the provider's return redirect instead of the watch goroutine.
// The redirect's status field is caller supplied; a claimed success is
// confirmed with the provider before it counts as the completion trigger.
func (o *Orchestrator) HandleChallengeResult(ctx context.Context, status types.ChallengeStatus) {
	log.Printf("Session %s: challenge return received with status %s", o.id, status)
	if status != types.ChallengeSuccess {
		return
	}
	if o.guard.Completed() {
		log.Printf("Session %s: completion already handled by %s; ignoring challenge return",
			o.id, o.guard.Winner())
		return
	}

	result, err := o.session.VerifyChallenge(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrSessionClosed) {
			log.Printf("Session %s: challenge confirmation failed: %v", o.id, err)
		}
		return
	}
	if result == nil || result.Status != types.ChallengeSuccess {
		log.Printf("Session %s: challenge return not confirmed by provider; ignoring", o.id)
		return
	}
	o.complete(ctx, TriggerChallenge)
}

// complete is the single funnel in front of the reconciler. The guard's
// atomic check-and-set runs with no suspension point between check and set,
// so exactly one trigger per session reaches Submit.
func (o *Orchestrator) complete(ctx context.Context, trigger Trigger) {
	if !o.guard.TryComplete(trigger) {
		log.Printf("Session %s: completion already handled by %s; ignoring %s trigger",
			o.id, o.guard.Winner(), trigger)
		return
	}
	log.Printf("Session %s: completing order via %s trigger", o.id, trigger)

	result, effects, err := o.reconciler.Submit(ctx, o.method, map[string]interface{}{})
	if err != nil {
		// The completion request itself failed; keep the per-kind detail in
		// the log, surface a failed result to the UI.
		log.Printf("Session %s: order completion submit failed: %v", o.id, err)
		result = models.OrderCompletionResult{
			Kind:   models.CompletionFailed,
			Reason: "order completion request failed",
		}
	}

	o.mu.Lock()
	o.result = &result
	o.effects = append(o.effects, effects...)
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.SaveCompletionResult(o.id, string(trigger), result); err != nil {
			log.Printf("Session %s: failed to persist completion result: %v", o.id, err)
		}
	}
}

// Teardown releases the provider session unconditionally. Safe to call at
// any point, including with pay or injection still in flight; their
// results are discarded by the session manager.
func (o *Orchestrator) Teardown() {
	o.mu.Lock()
	o.torn = true
	o.mu.Unlock()
	o.session.Teardown()
}

// Snapshot returns the UI view of the session: state, payload, result and
// the navigation effects in emission order.
func (o *Orchestrator) Snapshot() models.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := models.SessionSnapshot{
		SessionID: o.id,
		State:     o.session.State().String(),
	}
	payload := o.payload
	snap.Payload = &payload
	if o.result != nil {
		result := *o.result
		snap.Result = &result
	}
	if len(o.effects) > 0 {
		snap.Effects = append([]models.Effect(nil), o.effects...)
	}
	return snap
}

func (o *Orchestrator) recordState() {
	if o.store == nil {
		return
	}
	if err := o.store.RecordSessionState(o.id, o.session.State()); err != nil {
		log.Printf("Session %s: failed to record session state: %v", o.id, err)
	}
}
