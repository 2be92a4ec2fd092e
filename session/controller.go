// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the authenticated session: it creates sessions
// on demand, attaches the bearer token to every backend call, renews
// the session when the backend rejects it, and queues calls that
// arrive while a creation is under way.
//
// At most one creation runs at a time. Calls that find a creation in
// progress wait in a FIFO queue and resume, in order, once it settles;
// a failed creation fails every queued call with the same
// *AuthenticationError. Every call runs on its caller's goroutine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/courier/credstore"
	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/taskqueue"
	"github.com/bureau-foundation/courier/lib/version"
	"github.com/bureau-foundation/courier/messaging"
)

// Backend is the part of the messaging API that manages sessions.
// *messaging.Client implements it.
type Backend interface {
	StartSession(ctx context.Context) (*messaging.AuthChallenge, error)
	CreateSession(ctx context.Context, create messaging.CreateSessionRequest) (*messaging.SessionResponse, error)
	EndSession(ctx context.Context, token, sessionID string) error
}

// Authenticator answers the backend's authentication challenge with a
// token from the application's identity provider.
type Authenticator interface {
	AuthenticationChallenge(ctx context.Context, challenge messaging.AuthChallenge) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, challenge messaging.AuthChallenge) (string, error)

func (f AuthenticatorFunc) AuthenticationChallenge(ctx context.Context, challenge messaging.AuthChallenge) (string, error) {
	return f(ctx, challenge)
}

// RetryPolicy bounds renewal.
type RetryPolicy struct {
	// MaxUnauthorizedRetries is how many renewals a single call may
	// trigger through 401 responses. The next 401 fails the call with
	// *AuthExhaustedError.
	MaxUnauthorizedRetries int

	// RenewalAttempts is how many times one session creation is
	// attempted before it fails.
	RenewalAttempts int

	// CreateTimeout bounds one session creation, including retries.
	CreateTimeout time.Duration
}

// DefaultRetryPolicy returns three renewals per call, two attempts per
// creation and a 30 second creation timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxUnauthorizedRetries: 3, RenewalAttempts: 2, CreateTimeout: 30 * time.Second}
}

// DeviceInfo describes this installation in session creation requests.
type DeviceInfo struct {
	Platform        string
	PlatformVersion string
	SDKType         string
	SDKVersion      string
}

// DefaultDeviceInfo describes the running binary.
func DefaultDeviceInfo() DeviceInfo {
	return DeviceInfo{
		Platform:        version.Platform(),
		PlatformVersion: version.GoVersion(),
		SDKType:         "go",
		SDKVersion:      version.Short(),
	}
}

// Operation is a backend call that needs a session. It receives the
// session to authorize with.
type Operation func(ctx context.Context, session credstore.SessionData) error

// Config holds the dependencies of a Controller.
type Config struct {
	Backend Backend
	Store   credstore.Store

	// Authenticator may be nil, in which case sessions can only be
	// restored from Store and calls without one fail with
	// ErrNoSession.
	Authenticator Authenticator

	// State is updated on creation, failure and end. Required.
	State *StateHolder

	// Bus receives SessionStarted, SessionStopped and
	// SessionCreateFailed. Required.
	Bus *events.Bus

	// Policy zero fields take DefaultRetryPolicy values.
	Policy RetryPolicy

	// Device zero value takes DefaultDeviceInfo.
	Device DeviceInfo

	Clock  clock.Clock
	Logger *slog.Logger
}

// Controller admits backend calls against the current session.
type Controller struct {
	backend       Backend
	store         credstore.Store
	authenticator Authenticator
	state         *StateHolder
	bus           *events.Bus
	policy        RetryPolicy
	device        DeviceInfo
	clock         clock.Clock
	logger        *slog.Logger

	coordinator Coordinator
	queue       *taskqueue.Queue

	// admitMu orders the coordinator check against enqueueing so no
	// task is enqueued after the drain that should have run it. It also
	// guards lastTurn, the turn of the most recently queued waiter.
	admitMu  sync.Mutex
	lastTurn <-chan struct{}
}

// NewController returns a Controller.
func NewController(config Config) (*Controller, error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("session: Backend is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("session: Store is required")
	}
	if config.State == nil {
		return nil, fmt.Errorf("session: State is required")
	}
	if config.Bus == nil {
		return nil, fmt.Errorf("session: Bus is required")
	}

	defaults := DefaultRetryPolicy()
	policy := config.Policy
	if policy.MaxUnauthorizedRetries <= 0 {
		policy.MaxUnauthorizedRetries = defaults.MaxUnauthorizedRetries
	}
	if policy.RenewalAttempts <= 0 {
		policy.RenewalAttempts = defaults.RenewalAttempts
	}
	if policy.CreateTimeout <= 0 {
		policy.CreateTimeout = defaults.CreateTimeout
	}
	device := config.Device
	if device == (DeviceInfo{}) {
		device = DefaultDeviceInfo()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	admitted := make(chan struct{})
	close(admitted)

	return &Controller{
		backend:       config.Backend,
		store:         config.Store,
		authenticator: config.Authenticator,
		state:         config.State,
		bus:           config.Bus,
		policy:        policy,
		device:        device,
		clock:         clk,
		logger:        logger,
		queue:         taskqueue.New(logger),
		lastTurn:      admitted,
	}, nil
}

// waiter is a call parked behind an in-progress creation. Waiters
// resume in enqueue order: each holds turn until it has been admitted,
// and the waiter after it blocks on prev until then.
type waiter struct {
	name    string
	outcome chan error
	prev    <-chan struct{}
	turn    chan struct{}
}

// Execute runs op with a valid session, creating or renewing the
// session as needed. If a creation is in progress the call waits for
// it. A 401 from op renews the session and retries op, up to
// MaxUnauthorizedRetries renewals. op always runs on the goroutine
// that called Execute.
//
// When ctx ends while the call is waiting, Execute returns ctx.Err()
// and op is not run. A creation the call started keeps running for
// the calls queued behind it.
func (c *Controller) Execute(ctx context.Context, name string, op Operation) error {
	err := c.execute(ctx, name, op)
	if err != nil {
		c.logger.Warn("operation failed", "operation", name, "error", err)
	}
	return err
}

func (c *Controller) execute(ctx context.Context, name string, op Operation) error {
	rejected := ""
	for renewals := 0; ; renewals++ {
		current, err := c.acquire(ctx, name, rejected)
		if err != nil {
			return err
		}
		err = op(ctx, current)
		if !messaging.IsUnauthorized(err) {
			return err
		}
		if renewals >= c.policy.MaxUnauthorizedRetries {
			return &AuthExhaustedError{Operation: name, Renewals: renewals, Err: err}
		}
		c.logger.Info("session rejected, renewing",
			"operation", name,
			"session_id", current.SessionID,
			"attempt", renewals+1,
		)
		rejected = current.AccessToken
	}
}

// acquire returns a session to run the call with: the stored one, or
// one from a creation this call starts or waits for. A non-empty
// rejected token is one the backend refused; a stored session carrying
// it is not reused.
func (c *Controller) acquire(ctx context.Context, name, rejected string) (credstore.SessionData, error) {
	release := func() {}
	defer func() { release() }()

	for {
		if err := ctx.Err(); err != nil {
			return credstore.SessionData{}, err
		}

		c.admitMu.Lock()
		wait := c.coordinator.InProgress()
		if !wait {
			stored, err := c.store.Session()
			switch {
			case err != nil:
				c.admitMu.Unlock()
				return credstore.SessionData{}, fmt.Errorf("session: reading stored session: %w", err)
			case stored != nil && stored.Valid(c.clock.Now()) && stored.AccessToken != rejected:
				c.admitMu.Unlock()
				return *stored, nil
			case c.authenticator == nil:
				c.admitMu.Unlock()
				return credstore.SessionData{}, ErrNoSession
			}
			wait = !c.coordinator.TryEnter()
		}
		if !wait {
			c.admitMu.Unlock()
			release()
			return c.awaitCreation(ctx, name)
		}
		parked := c.enqueue(name)
		c.admitMu.Unlock()
		release()

		next, err := c.await(ctx, parked)
		if err != nil {
			return credstore.SessionData{}, err
		}
		release = next
	}
}

// enqueue is called with admitMu held.
func (c *Controller) enqueue(name string) *waiter {
	parked := &waiter{
		name:    name,
		outcome: make(chan error, 1),
		prev:    c.lastTurn,
		turn:    make(chan struct{}),
	}
	c.lastTurn = parked.turn
	c.queue.Enqueue(func(outcome error) { parked.outcome <- outcome })
	c.logger.Debug("operation queued behind session creation",
		"operation", name,
		"pending", c.queue.Len(),
	)
	return parked
}

// await blocks until the creation settles and every earlier waiter has
// been admitted. On success it returns the function that passes the
// turn to the next waiter.
func (c *Controller) await(ctx context.Context, parked *waiter) (func(), error) {
	release := sync.OnceFunc(func() { close(parked.turn) })
	select {
	case outcome := <-parked.outcome:
		if outcome != nil {
			release()
			return nil, outcome
		}
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
	select {
	case <-parked.prev:
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
	c.logger.Debug("resuming queued operation", "operation", parked.name)
	return release, nil
}

type creation struct {
	session credstore.SessionData
	err     error
}

// awaitCreation runs a creation the caller has already entered the
// coordinator for. The creation runs on its own goroutine so the
// caller can stop waiting while queued calls still get its outcome.
func (c *Controller) awaitCreation(ctx context.Context, trigger string) (credstore.SessionData, error) {
	done := make(chan creation, 1)
	go func() {
		created, err := c.createAndSettle(ctx, trigger)
		done <- creation{session: created, err: err}
	}()
	select {
	case result := <-done:
		return result.session, result.err
	case <-ctx.Done():
		return credstore.SessionData{}, ctx.Err()
	}
}

// createAndSettle runs a creation while holding the coordinator, then
// releases it and wakes the queue with the outcome. Events are
// published after the queue is woken, so listeners may call Execute.
// The creation is detached from the triggering caller's cancellation
// because queued callers share its outcome.
func (c *Controller) createAndSettle(ctx context.Context, trigger string) (credstore.SessionData, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.policy.CreateTimeout)
	defer cancel()

	created, err := c.createWithRetry(ctx, trigger)
	if err != nil {
		authErr := &AuthenticationError{Err: err}
		c.state.Transition(SessionOff, Initialised, SessionActive, SessionOff)
		c.logger.Error("session creation failed", "operation", trigger, "error", err)
		c.settle(authErr)
		c.bus.Publish(events.SessionCreateFailed{Err: authErr})
		return credstore.SessionData{}, authErr
	}

	c.state.Transition(SessionActive, Initialised, SessionActive, SessionOff)
	c.settle(nil)
	c.bus.Publish(events.SessionStarted{
		ProfileID: created.ProfileID,
		SessionID: created.SessionID,
		ExpiresOn: created.Expiry(),
	})
	return created, nil
}

// settle releases the coordinator and wakes every queued call. It does
// not wait for the woken calls.
func (c *Controller) settle(outcome error) {
	c.admitMu.Lock()
	c.coordinator.Exit()
	c.admitMu.Unlock()

	if woken := c.queue.ExecutePending(outcome); woken > 0 {
		c.logger.Debug("woke queued operations", "count", woken, "failed", outcome != nil)
	}
}

func (c *Controller) createWithRetry(ctx context.Context, trigger string) (credstore.SessionData, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.RenewalAttempts; attempt++ {
		created, err := c.create(ctx)
		if err == nil {
			return created, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < c.policy.RenewalAttempts {
			c.logger.Warn("session creation attempt failed, retrying",
				"operation", trigger,
				"attempt", attempt,
				"error", err,
			)
		}
	}
	return credstore.SessionData{}, lastErr
}

func (c *Controller) create(ctx context.Context) (credstore.SessionData, error) {
	challenge, err := c.backend.StartSession(ctx)
	if err != nil {
		return credstore.SessionData{}, err
	}
	token, err := c.authenticator.AuthenticationChallenge(ctx, *challenge)
	if err != nil {
		return credstore.SessionData{}, fmt.Errorf("answering challenge: %w", err)
	}
	if token == "" {
		return credstore.SessionData{}, fmt.Errorf("answering challenge: authenticator returned an empty token")
	}
	device, err := credstore.EnsureDevice(c.store)
	if err != nil {
		return credstore.SessionData{}, fmt.Errorf("loading device record: %w", err)
	}
	response, err := c.backend.CreateSession(ctx, messaging.CreateSessionRequest{
		AuthenticationID:    challenge.AuthenticationID,
		AuthenticationToken: token,
		DeviceID:            device.DeviceID,
		Platform:            c.device.Platform,
		PlatformVersion:     c.device.PlatformVersion,
		SDKType:             c.device.SDKType,
		SDKVersion:          c.device.SDKVersion,
	})
	if err != nil {
		return credstore.SessionData{}, err
	}
	created := credstore.SessionData{
		ProfileID:   response.Session.ProfileID,
		SessionID:   response.Session.ID,
		AccessToken: response.Token,
		ExpiresOn:   response.Session.ExpiresOn.UnixMilli(),
	}
	if err := c.store.SetSession(created); err != nil {
		return credstore.SessionData{}, fmt.Errorf("storing session: %w", err)
	}
	return created, nil
}

// StartSession returns the current session, creating one if there is
// no valid session. It joins a creation already in progress.
func (c *Controller) StartSession(ctx context.Context) (credstore.SessionData, error) {
	var current credstore.SessionData
	err := c.Execute(ctx, "start session", func(_ context.Context, session credstore.SessionData) error {
		current = session
		return nil
	})
	if err != nil {
		return credstore.SessionData{}, err
	}
	return current, nil
}

// Reauthenticate creates a new session even if the stored one is still
// valid. It joins a creation already in progress instead of starting a
// second one.
func (c *Controller) Reauthenticate(ctx context.Context) error {
	c.admitMu.Lock()
	if c.authenticator == nil {
		c.admitMu.Unlock()
		return ErrNoSession
	}
	if !c.coordinator.TryEnter() {
		joined := make(chan error, 1)
		c.queue.Enqueue(func(outcome error) { joined <- outcome })
		c.admitMu.Unlock()
		select {
		case err := <-joined:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.admitMu.Unlock()

	_, err := c.awaitCreation(ctx, "reauthenticate")
	return err
}

// EndSession ends the stored session with the backend and clears it.
// A backend 401 means the session is already gone and still clears
// local state.
func (c *Controller) EndSession(ctx context.Context) error {
	c.admitMu.Lock()
	if c.coordinator.InProgress() {
		c.admitMu.Unlock()
		return ErrCreationInProgress
	}
	stored, err := c.store.Session()
	c.admitMu.Unlock()
	if err != nil {
		return fmt.Errorf("session: reading stored session: %w", err)
	}
	if stored == nil {
		return ErrNoSession
	}

	if err := c.backend.EndSession(ctx, stored.AccessToken, stored.SessionID); err != nil {
		if !messaging.IsUnauthorized(err) {
			c.logger.Warn("ending session failed", "session_id", stored.SessionID, "error", err)
			return err
		}
		c.logger.Info("session already rejected by backend", "session_id", stored.SessionID)
	}
	if err := c.store.ClearSession(); err != nil {
		return fmt.Errorf("session: clearing stored session: %w", err)
	}
	c.state.Transition(SessionOff, Initialised, SessionActive)
	c.logger.Info("session ended", "session_id", stored.SessionID)
	c.bus.Publish(events.SessionStopped{})
	return nil
}

// AccessToken returns the stored token if the session is still valid.
func (c *Controller) AccessToken() (string, bool) {
	stored, err := c.store.Session()
	if err != nil || stored == nil || !stored.Valid(c.clock.Now()) {
		return "", false
	}
	return stored.AccessToken, true
}

// Session returns the stored session, valid or not.
func (c *Controller) Session() (*credstore.SessionData, error) {
	return c.store.Session()
}

// State derives the session phase.
func (c *Controller) State() Phase {
	if c.coordinator.InProgress() {
		return Creating
	}
	stored, err := c.store.Session()
	if err != nil || stored == nil {
		return NoSession
	}
	if stored.Valid(c.clock.Now()) {
		return Active
	}
	return Expired
}

// PendingCount returns the number of calls waiting for a creation.
func (c *Controller) PendingCount() int { return c.queue.Len() }
