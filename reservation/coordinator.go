package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/averbeck/bookhold/reservation/retry"
)

const (
	logMsgReservationCreated     = "reservation created"
	logMsgReservationCancelled   = "reservation cancelled"
	logMsgAvailabilityGateClosed = "reserve rejected, no units available"
	logMsgLedgerWriteFailed      = "ledger write failed after decrement, handing unit back"
	logMsgIncrementSkipped       = "availability increment skipped, item no longer exists"
	logMsgCompensationFailed     = "compensating increment failed, counter is short of ledger"

	logAttrItemID        = "item_id"
	logAttrReservationID = "reservation_id"
	logAttrRequesterID   = "requester_id"
	logAttrError         = "error"

	metricReservesTotal        = "bookhold_reserves_total"
	metricCancelsTotal         = "bookhold_cancels_total"
	metricCompensationFailures = "bookhold_compensation_failures_total"

	metricLabelStatus       = "status"
	metricStatusSuccess     = "success"
	metricStatusUnavailable = "unavailable"
	metricStatusRejected    = "rejected"
	metricStatusError       = "error"
)

var ErrNilItemRepository = errors.New("item repository must not be nil")
var ErrNilReservationRepository = errors.New("reservation repository must not be nil")
var ErrNilClock = errors.New("clock must not be nil")

// Hold pairs a reservation with the point-in-time snapshot of its item's
// descriptive fields, as returned by ListForRequester.
type Hold struct {
	Reservation Reservation
	Item        ItemSnapshot
}

// Coordinator is the sole authority permitted to change an item's
// availability counter. Every reserve and cancel flows through it, keeping
// the counter equal to capacity minus the count of active reservations.
//
// The critical read-check-write sequence is delegated to the stores'
// conditional mutations, so operations on different items never contend
// with each other and operations on the same item cannot oversell.
type Coordinator struct {
	items             ItemRepository
	reservations      ReservationRepository
	logger            Logger
	contextualLogger  ContextualLogger
	metrics           MetricsCollector
	now               func() time.Time
	compensationRetry []retry.Option
}

// CoordinatorOption defines a functional option for configuring a Coordinator.
type CoordinatorOption func(*Coordinator) error

// WithLogger sets the logger for the Coordinator.
func WithLogger(logger Logger) CoordinatorOption {
	return func(c *Coordinator) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Coordinator.
// When both loggers are configured, the contextual one wins.
func WithContextualLogger(logger ContextualLogger) CoordinatorOption {
	return func(c *Coordinator) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Coordinator. It receives
// counters for reserves and cancels by outcome and for compensation failures.
func WithMetrics(collector MetricsCollector) CoordinatorOption {
	return func(c *Coordinator) error {
		c.metrics = collector
		return nil
	}
}

// WithClock sets the time source, mainly for tests.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) error {
		if now == nil {
			return ErrNilClock
		}

		c.now = now

		return nil
	}
}

// WithCompensationRetryOptions configures the backoff used when handing a
// unit back after a mid-operation ledger fault. The fast path is unaffected.
func WithCompensationRetryOptions(opts ...retry.Option) CoordinatorOption {
	return func(c *Coordinator) error {
		c.compensationRetry = opts
		return nil
	}
}

// NewCoordinator creates a Coordinator over the given stores with optional configuration.
func NewCoordinator(
	items ItemRepository,
	reservations ReservationRepository,
	options ...CoordinatorOption,
) (*Coordinator, error) {

	if items == nil {
		return nil, ErrNilItemRepository
	}

	if reservations == nil {
		return nil, ErrNilReservationRepository
	}

	c := &Coordinator{
		items:        items,
		reservations: reservations,
		now:          time.Now,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Reserve validates the requested date range, passes the availability gate,
// and creates an active reservation holding exactly one unit of the item.
//
// The gate is the store's conditional decrement: it either applies atomically
// or reports not-applied, in which case Reserve fails with ErrUnavailable and
// no state has changed. Repeating a Reserve that failed with ErrUnavailable
// therefore has no observable side effect.
//
// If the ledger write faults after the decrement was applied, the unit is
// handed back with a retried compensating increment before the error is
// surfaced, so a failure leaves neither the record nor the decrement behind.
func (c *Coordinator) Reserve(
	ctx context.Context,
	requesterID uuid.UUID,
	itemID uuid.UUID,
	startDate time.Time,
	endDate time.Time,
) (Reservation, error) {

	if err := ValidateDateRange(startDate, endDate, c.now()); err != nil {
		c.countOutcome(metricReservesTotal, metricStatusRejected)
		return Reservation{}, err
	}

	ctx = WithStrongConsistency(ctx)

	item, err := c.items.GetItem(ctx, itemID)
	if err != nil {
		c.countOutcome(metricReservesTotal, metricStatusError)
		return Reservation{}, err
	}

	applied, err := c.items.ConditionalDecrementAvailability(ctx, itemID)
	if err != nil {
		c.countOutcome(metricReservesTotal, metricStatusError)
		return Reservation{}, err
	}

	if !applied {
		c.logInfo(ctx, logMsgAvailabilityGateClosed, logAttrItemID, itemID.String())
		c.countOutcome(metricReservesTotal, metricStatusUnavailable)

		return Reservation{}, ErrUnavailable
	}

	rec := Reservation{
		ID:           uuid.New(),
		ItemID:       itemID,
		RequesterID:  requesterID,
		StartDate:    ToDate(startDate),
		EndDate:      ToDate(endDate),
		Status:       StatusActive,
		ItemSnapshot: item.Snapshot(),
		CreatedAt:    c.now(),
	}

	created, createErr := c.reservations.Create(ctx, rec)
	if createErr != nil {
		c.logError(ctx, logMsgLedgerWriteFailed, createErr, logAttrItemID, itemID.String())
		c.countOutcome(metricReservesTotal, metricStatusError)

		if compErr := c.handUnitBack(ctx, itemID); compErr != nil {
			return Reservation{}, errors.Join(createErr, compErr)
		}

		return Reservation{}, createErr
	}

	c.logInfo(ctx, logMsgReservationCreated,
		logAttrReservationID, created.ID.String(),
		logAttrItemID, itemID.String(),
		logAttrRequesterID, requesterID.String())
	c.countOutcome(metricReservesTotal, metricStatusSuccess)

	return created, nil
}

// Cancel terminates an active reservation owned by the requester and hands
// its unit back to the item.
//
// Ownership is the sole authorization rule: a requester cancelling someone
// else's reservation fails with ErrNotOwner and changes nothing. The checks
// run in order: existence, ownership, active status. A reservation that was
// already cancelled reports ErrReservationNotFound.
//
// The increment is skipped, without failing the cancellation, when the item
// was concurrently removed from the catalog.
func (c *Coordinator) Cancel(ctx context.Context, requesterID uuid.UUID, reservationID uuid.UUID) error {
	ctx = WithStrongConsistency(ctx)

	rec, err := c.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		c.countOutcome(metricCancelsTotal, metricStatusError)
		return err
	}

	if rec.RequesterID != requesterID {
		c.countOutcome(metricCancelsTotal, metricStatusRejected)
		return ErrNotOwner
	}

	if !rec.IsActive() {
		c.countOutcome(metricCancelsTotal, metricStatusRejected)
		return ErrReservationNotFound
	}

	applied, err := c.reservations.Terminate(ctx, reservationID, c.now())
	if err != nil {
		c.countOutcome(metricCancelsTotal, metricStatusError)
		return err
	}

	if !applied {
		// a concurrent cancel won the race; the unit was already handed back
		c.countOutcome(metricCancelsTotal, metricStatusRejected)
		return ErrReservationNotFound
	}

	if incErr := c.incrementWithRetry(ctx, rec.ItemID); incErr != nil {
		if errors.Is(incErr, ErrItemNotFound) {
			c.logWarn(ctx, logMsgIncrementSkipped,
				logAttrItemID, rec.ItemID.String(),
				logAttrReservationID, reservationID.String())
		} else {
			c.countOutcome(metricCancelsTotal, metricStatusError)
			return incErr
		}
	}

	c.logInfo(ctx, logMsgReservationCancelled,
		logAttrReservationID, reservationID.String(),
		logAttrItemID, rec.ItemID.String())
	c.countOutcome(metricCancelsTotal, metricStatusSuccess)

	return nil
}

// ListForRequester returns all active reservations owned by the requester,
// each paired with the item snapshot captured when the hold was created.
// Read-only; callers may opt into eventual consistency via the context.
func (c *Coordinator) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]Hold, error) {
	recs, err := c.reservations.ListActiveByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	holds := make([]Hold, 0, len(recs))
	for _, rec := range recs {
		holds = append(holds, Hold{Reservation: rec, Item: rec.ItemSnapshot})
	}

	return holds, nil
}

// handUnitBack returns a decremented unit after a ledger fault. The original
// request context may already be dead, so compensation runs detached from
// its cancellation. A missing item swallows the compensation: the unit was
// removed together with its item.
func (c *Coordinator) handUnitBack(ctx context.Context, itemID uuid.UUID) error {
	compErr := c.incrementWithRetry(context.WithoutCancel(ctx), itemID)
	if compErr == nil || errors.Is(compErr, ErrItemNotFound) {
		return nil
	}

	c.logError(ctx, logMsgCompensationFailed, compErr, logAttrItemID, itemID.String())

	if c.metrics != nil {
		c.metrics.IncrementCounter(metricCompensationFailures, map[string]string{logAttrItemID: itemID.String()})
	}

	return errors.Join(ErrCompensationFailed, compErr)
}

// incrementWithRetry hands one unit back with backoff. ErrItemNotFound is
// permanent and surfaces immediately; everything else is treated as transient.
func (c *Coordinator) incrementWithRetry(ctx context.Context, itemID uuid.UUID) error {
	retryOpts := append([]retry.Option{
		retry.WithRetryableCheck(func(err error) bool {
			return !errors.Is(err, ErrItemNotFound)
		}),
	}, c.compensationRetry...)

	_, err := retry.WithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return c.items.IncrementAvailability(retryCtx, itemID)
	}, retryOpts...)

	return err
}

func (c *Coordinator) logInfo(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Coordinator) logWarn(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Coordinator) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if c.logger != nil {
		c.logger.Error(msg, allArgs...)
	}
}

func (c *Coordinator) countOutcome(metric string, status string) {
	if c.metrics != nil {
		c.metrics.IncrementCounter(metric, map[string]string{metricLabelStatus: status})
	}
}
