// Package game implements the Pokeropoly turn-action core that every client
// runs: the player registry, the action reducer, movement, the auction and
// the inbound action queue.
//
// # Model
//
// Clients are authoritative for their own actions. A client applies an
// action to its own Engine, then broadcasts it; every other client decodes
// the envelope, queues it and applies it to its Engine in arrival order.
// There is no server-side validation or global ordering, so each reducer
// handler is written to be safe under re-application:
//
//   - buyCard is first-applied-wins per board position
//   - endTurn carries the next turn index rather than incrementing
//   - every player index is clamped with ResolveIndex before use
//
// # Basic Usage
//
// The Engine is synchronous and can be driven directly:
//
//	e := game.NewEngine(game.EngineConfig{Layout: layout, Players: reg})
//	_ = e.Apply(0, game.RollDice{Total: 7})
//	for !e.Step() {
//	}
//
// A Session wraps an Engine in an event loop that owns the movement
// ticker, the action queue, echo suppression and the auto end-turn timers:
//
//	s := game.NewSession(cfg, transport, clock, logger)
//	go s.Run(ctx)
//	_ = s.Roll(ctx, 8, false)
package game
