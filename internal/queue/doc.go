// Package queue is the admission and credit engine behind the roster.
//
// # Overview
//
// Viewers spend credits recorded in the roster file to join one of three
// independent sub-queues:
//
//   - normal: ordered by roster index, costs NormalCost on completion
//   - cutline: priority queue, costs CutlineCost spread over all of the
//     viewer's roster lines
//   - boarding: a separate list that does not compete with the normal queue
//
// Each sub-queue is started and stopped on its own. Chat requests are
// refused while a sub-queue is stopped; operator commands are not.
//
// # Architecture
//
// All state is owned by one goroutine, Engine.Run. Every public method
// wraps its work in a command, sends it over a channel and waits for the
// reply, so no locks guard the roster or the tickets. The watcher, the
// chat router and the dashboard are all just command senders.
//
// After every command that changes something, the engine writes a JSON
// snapshot through state.EngineStore. Debits and grants also rewrite the
// roster file right away so the file on disk never lags the credits
// actually spent.
//
// # Reloading
//
// The roster file can be edited while tickets are live. ReloadRoster
// re-reads it and moves every ticket onto the matching fresh entry (same
// name and line first, then same name). A ticket whose viewer vanished
// from the file is dropped and logged at error level. The engine skips
// reloads triggered by its own writes.
//
// # Example
//
//	engine := queue.New(settings, queue.WithLogger(logger))
//	if err := engine.Restore(); err != nil {
//	    logger.Warn("cold start", "error", err)
//	}
//	go engine.Run(ctx)
//
//	engine.Start(ctx, queue.Normal)
//	if err := engine.RequestNormalAdmission(ctx, "钱五"); err != nil {
//	    // errors.Is(err, queue.ErrNotEligible) ...
//	}
package queue
