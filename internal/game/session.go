package game

import (
	"context"
	"errors"
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/lox/pokeropoly/internal/randutil"
)

// Transport broadcasts envelopes to the other clients in the room.
// Publish is called from the session loop and should only enqueue.
type Transport interface {
	Publish(ctx context.Context, env protocol.Envelope) error
}

// SessionConfig configures a Session.
type SessionConfig struct {
	UserID           string
	TickInterval     time.Duration
	AutoEndTurnDelay time.Duration
	Autoplay         bool
	AutoplayDelay    time.Duration
	Rules            Rules
	// Seed drives autoplay dice; 0 seeds from the clock.
	Seed int64
}

// DefaultSessionConfig returns the standard timings for userID.
func DefaultSessionConfig(userID string) SessionConfig {
	return SessionConfig{
		UserID:           userID,
		TickInterval:     300 * time.Millisecond,
		AutoEndTurnDelay: 500 * time.Millisecond,
		AutoplayDelay:    time.Second,
		Rules:            DefaultRules(),
	}
}

type timerKind int

const (
	timerEndTurn timerKind = iota
	timerAutoplay
)

// Session is one client's view of a game. A single goroutine (Run) owns the
// engine and the queue; public methods hand work to it and wait.
type Session struct {
	cfg       SessionConfig
	logger    *log.Logger
	clock     quartz.Clock
	transport Transport
	rng       *rand.Rand
	bus       *SimpleEventBus

	origin string
	seq    uint64
	// applied is the highest seq taken from each remote origin.
	applied map[string]uint64

	engine *Engine
	queue  *Queue

	commands chan func()
	inbound  chan protocol.Envelope
	timers   chan timerKind
	done     chan struct{}
	stopOnce sync.Once

	ticker *quartz.Ticker
	tick   <-chan time.Time
	armed  map[timerKind]*quartz.Timer
}

// NewSession creates a session with an empty engine. Call Load once the
// roster and board are known.
func NewSession(cfg SessionConfig, transport Transport, clock quartz.Clock, logger *log.Logger) *Session {
	defaults := DefaultSessionConfig(cfg.UserID)
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.AutoEndTurnDelay <= 0 {
		cfg.AutoEndTurnDelay = defaults.AutoEndTurnDelay
	}
	if cfg.AutoplayDelay <= 0 {
		cfg.AutoplayDelay = defaults.AutoplayDelay
	}
	if clock == nil {
		clock = quartz.NewReal()
	}

	s := &Session{
		cfg:       cfg,
		logger:    logger.WithPrefix("session"),
		clock:     clock,
		transport: transport,
		rng:       randutil.Seeded(cfg.Seed),
		bus:       NewEventBus(),
		origin:    uuid.NewString(),
		applied:   make(map[string]uint64),
		queue:     NewQueue(logger),
		commands:  make(chan func()),
		inbound:   make(chan protocol.Envelope, 64),
		timers:    make(chan timerKind, 8),
		done:      make(chan struct{}),
		armed:     make(map[timerKind]*quartz.Timer),
	}
	s.engine = NewEngine(EngineConfig{Clock: clock, Logger: logger, Rules: cfg.Rules, Bus: s.bus})
	return s
}

// Origin is the id stamped on every envelope this session sends.
func (s *Session) Origin() string {
	return s.origin
}

// Subscribe registers an event subscriber. It must be called before Run.
func (s *Session) Subscribe(sub EventSubscriber) {
	s.bus.Subscribe(sub)
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run is the session loop. It returns nil after Leave, or the context
// error.
func (s *Session) Run(ctx context.Context) error {
	defer s.stopTimers()
	for {
		select {
		case <-s.done:
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			s.stop()
			return ctx.Err()
		case <-s.done:
			return nil
		case fn := <-s.commands:
			fn()
		case env := <-s.inbound:
			s.receive(ctx, env)
		case <-s.tick:
			s.step(ctx)
		case kind := <-s.timers:
			s.fire(ctx, kind)
		}
	}
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// do runs fn on the loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func(context.Context) error) error {
	errc := make(chan error, 1)
	cmd := func() { errc <- fn(ctx) }
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver hands an inbound envelope to the session.
func (s *Session) Deliver(ctx context.Context, env protocol.Envelope) error {
	select {
	case s.inbound <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Load seats the roster and board read from the room at game start or
// resume. Any previous state is discarded.
func (s *Session) Load(ctx context.Context, room protocol.Room, roster []protocol.Player) error {
	return s.do(ctx, func(ctx context.Context) error {
		s.reset()
		s.engine = NewEngine(EngineConfig{
			Layout:  room.GameState,
			Players: RegistryFromRoster(roster),
			Turn:    Turn{Current: room.CurrentTurnPlayerIndex, Number: room.TurnNumber},
			Rules:   s.cfg.Rules,
			Clock:   s.clock,
			Logger:  s.logger,
			Bus:     s.bus,
		})
		s.logger.Info("game loaded", "room", room.ID, "players", len(roster), "turn", s.engine.Turn().Current, "local", s.localIndex())
		s.react()
		return nil
	})
}

// Snapshot copies the engine state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(context.Context) error {
		snap = s.engine.Snapshot()
		return nil
	})
	return snap, err
}

// Roll moves the local player when it is their turn.
func (s *Session) Roll(ctx context.Context, total int, isPair bool) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.roll(ctx, total, isPair)
	})
}

// RollDice throws two dice and rolls their total.
func (s *Session) RollDice(ctx context.Context) (int, error) {
	var total int
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		total, err = s.rollDice(ctx)
		return err
	})
	return total, err
}

// Buy accepts the pending purchase prompt.
func (s *Session) Buy(ctx context.Context) error {
	return s.do(ctx, s.buy)
}

// Decline refuses the pending purchase and ends the turn.
func (s *Session) Decline(ctx context.Context) error {
	return s.do(ctx, s.decline)
}

// StartAuction puts the pending purchase up for auction instead.
func (s *Session) StartAuction(ctx context.Context) error {
	return s.do(ctx, s.startAuction)
}

// PlaceBid bids on the open auction.
func (s *Session) PlaceBid(ctx context.Context, amount int) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.placeBid(ctx, amount)
	})
}

// CloseAuction settles the auction this client started.
func (s *Session) CloseAuction(ctx context.Context) error {
	return s.do(ctx, s.closeAuction)
}

// PayPenalty pays the pending penalty.
func (s *Session) PayPenalty(ctx context.Context) error {
	return s.do(ctx, s.payPenalty)
}

// EndTurn passes the turn to the next seat.
func (s *Session) EndTurn(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		if !s.engine.IsTurnOf(s.cfg.UserID) {
			return ErrNotYourTurn
		}
		if s.engine.Moving() {
			return ErrMoveInProgress
		}
		return s.endTurn(ctx)
	})
}

// Leave tears the session down: queue, flags, turn, roster, ownership,
// prompts and timers are all reset, the transport is closed when it is an
// io.Closer, and Run returns.
func (s *Session) Leave(ctx context.Context) error {
	err := s.do(ctx, func(context.Context) error {
		s.reset()
		s.logger.Info("left game")
		var err error
		if c, ok := s.transport.(io.Closer); ok {
			err = c.Close()
		}
		s.stop()
		return err
	})
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

func (s *Session) reset() {
	s.stopTimers()
	s.engine.Reset()
	s.queue.Reset()
	clear(s.applied)
}

func (s *Session) localIndex() int {
	return s.engine.players.IndexOf(s.cfg.UserID)
}

// broadcast stamps and publishes a. Failures are logged; local effects
// have already been applied and are kept.
func (s *Session) broadcast(ctx context.Context, sender int, a Action) {
	env, err := Encode(s.cfg.UserID, sender, a)
	if err != nil {
		s.logger.Error("encode failed", "type", a.Type(), "error", err)
		return
	}
	s.seq++
	env.Origin = s.origin
	env.Seq = s.seq
	env.SentAt = s.clock.Now()

	if s.transport == nil {
		return
	}
	if err := s.transport.Publish(ctx, env); err != nil {
		s.logger.Error("broadcast failed", "type", a.Type(), "seq", env.Seq, "error", err)
	}
}

func (s *Session) receive(ctx context.Context, env protocol.Envelope) {
	switch {
	case env.Origin == s.origin:
		s.logger.Debug("skipping own action", "type", env.ActionType, "seq", env.Seq)
		return
	case env.Origin == "" && env.UserID == s.cfg.UserID:
		s.logger.Debug("skipping own action by user id", "type", env.ActionType)
		return
	case env.Origin != "":
		if last, ok := s.applied[env.Origin]; ok && env.Seq <= last {
			s.logger.Debug("duplicate delivery", "origin", env.Origin, "seq", env.Seq, "last", last)
			return
		}
		s.applied[env.Origin] = env.Seq
	}

	a, err := Decode(env)
	if err != nil {
		s.logger.Warn("dropping malformed action", "type", env.ActionType, "error", err)
		return
	}
	s.queue.Push(env.PlayerIndex, a)
	s.logger.Debug("queued", "type", env.ActionType, "player", env.PlayerIndex, "queued", s.queue.Len())
	s.drain(ctx)
}

// drain empties the queue into the engine. Actions left behind a move are
// picked up when step finishes the move and calls drain again.
func (s *Session) drain(ctx context.Context) {
	if s.engine.Moving() {
		s.logger.Debug("player moving, queue will drain after movement", "queued", s.queue.Len())
		return
	}
	s.queue.Drain(s.engine)
	if s.engine.Moving() {
		s.startTicker()
		return
	}
	s.react()
}

func (s *Session) startTicker() {
	if s.ticker != nil {
		return
	}
	s.ticker = s.clock.NewTicker(s.cfg.TickInterval, "session", "move")
	s.tick = s.ticker.C
}

func (s *Session) stopTicker() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
	s.tick = nil
}

func (s *Session) step(ctx context.Context) {
	if !s.engine.Step() {
		return
	}
	s.stopTicker()
	s.drain(ctx)
}

// arm schedules a timer event unless one of the same kind is pending.
func (s *Session) arm(kind timerKind, d time.Duration) {
	if _, pending := s.armed[kind]; pending {
		return
	}
	s.armed[kind] = s.clock.AfterFunc(d, func() {
		select {
		case s.timers <- kind:
		case <-s.done:
		}
	}, "session", "timer")
}

func (s *Session) disarm(kind timerKind) {
	if t, ok := s.armed[kind]; ok {
		t.Stop()
		delete(s.armed, kind)
	}
}

func (s *Session) stopTimers() {
	s.stopTicker()
	for kind := range s.armed {
		s.disarm(kind)
	}
}

func (s *Session) fire(ctx context.Context, kind timerKind) {
	if _, ok := s.armed[kind]; !ok {
		return
	}
	delete(s.armed, kind)

	switch kind {
	case timerEndTurn:
		if s.engine.IsTurnOf(s.cfg.UserID) && !s.engine.Moving() {
			if err := s.endTurn(ctx); err != nil {
				s.logger.Warn("auto end turn failed", "error", err)
			}
		}
	case timerAutoplay:
		s.autoplay(ctx)
	}
}

func (s *Session) roll(ctx context.Context, total int, isPair bool) error {
	if err := s.engine.CheckRoll(s.cfg.UserID); err != nil {
		return err
	}
	if err := s.cfg.Rules.checkRoll(total); err != nil {
		return err
	}
	current, _ := s.engine.CurrentPlayer()

	s.logger.Info("rolling", "player", current, "total", total, "pair", isPair)
	s.broadcast(ctx, current, RollDice{Total: total, IsPair: isPair})
	if err := s.engine.StartMove(current, total); err != nil {
		return err
	}
	s.startTicker()
	return nil
}

func (s *Session) rollDice(ctx context.Context) (int, error) {
	d1, d2 := randutil.RollDice(s.rng)
	return d1 + d2, s.roll(ctx, d1+d2, d1 == d2)
}

// pendingPurchase returns the buy prompt when it belongs to the local
// player.
func (s *Session) pendingPurchase() (Purchase, int, error) {
	local := s.localIndex()
	if local < 0 {
		return Purchase{}, local, ErrNotSeated
	}
	p, ok := s.engine.PendingPurchase()
	if !ok || p.PlayerIndex != local {
		return Purchase{}, local, ErrNothingPending
	}
	return p, local, nil
}

func (s *Session) buy(ctx context.Context) error {
	purchase, local, err := s.pendingPurchase()
	if err != nil {
		return err
	}
	if _, p := s.engine.players.At(local); p.Chips < purchase.Price {
		return ErrInsufficientChips
	}

	a := BuyCard{Position: purchase.Position, Card: purchase.Card, Price: purchase.Price, PlayerIndex: local}
	if err := s.engine.Apply(local, a); err != nil {
		return err
	}
	s.broadcast(ctx, local, a)
	s.arm(timerEndTurn, s.cfg.AutoEndTurnDelay)
	return nil
}

func (s *Session) decline(ctx context.Context) error {
	if _, _, err := s.pendingPurchase(); err != nil {
		return err
	}
	s.engine.DismissPurchase()
	return s.endTurn(ctx)
}

func (s *Session) startAuction(ctx context.Context) error {
	purchase, local, err := s.pendingPurchase()
	if err != nil {
		return err
	}
	if _, open := s.engine.Auction(); open {
		return ErrAuctionOpen
	}

	a := StartAuction{Card: purchase.Card, Position: purchase.Position}
	if err := s.engine.Apply(local, a); err != nil {
		return err
	}
	s.broadcast(ctx, local, a)
	return nil
}

func (s *Session) placeBid(ctx context.Context, amount int) error {
	local := s.localIndex()
	if local < 0 {
		return ErrNotSeated
	}
	a := PlaceBid{Amount: amount}
	if err := s.engine.Apply(local, a); err != nil {
		return err
	}
	s.broadcast(ctx, local, a)
	return nil
}

func (s *Session) closeAuction(ctx context.Context) error {
	local := s.localIndex()
	if local < 0 {
		return ErrNotSeated
	}
	result, err := s.engine.CloseAuction(local)
	if errors.Is(err, ErrNoAuction) || errors.Is(err, ErrNotAuctioneer) {
		return err
	}
	if err != nil {
		s.logger.Warn("auction result not applied locally", "error", err)
	}
	s.broadcast(ctx, local, result)
	s.arm(timerEndTurn, s.cfg.AutoEndTurnDelay)
	return nil
}

func (s *Session) payPenalty(ctx context.Context) error {
	local := s.localIndex()
	if local < 0 {
		return ErrNotSeated
	}
	due, ok := s.engine.PendingPenalty()
	if !ok || due.PayerIndex != local {
		return ErrNothingPending
	}

	a := PayPenalty{PayerIndex: local, ReceiverIndex: due.OwnerIndex, Amount: due.Amount}
	if err := s.engine.Apply(local, a); err != nil {
		return err
	}
	s.broadcast(ctx, local, a)
	s.arm(timerEndTurn, s.cfg.AutoEndTurnDelay)
	return nil
}

func (s *Session) endTurn(ctx context.Context) error {
	if s.engine.Players().Len() == 0 {
		return ErrNoPlayers
	}
	s.disarm(timerEndTurn)

	current, _ := s.engine.CurrentPlayer()
	a := s.engine.NextTurn()
	s.logger.Info("ending turn", "from", current, "to", a.NextPlayerIndex)
	s.broadcast(ctx, current, a)
	if err := s.engine.Apply(current, a); err != nil {
		return err
	}
	s.react()
	return nil
}
