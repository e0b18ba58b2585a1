// Package manager owns the authoritative "what is where" state of the tier store and
// executes every transition of it. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, lookups.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: per-model state machine, Placement, Result and SwapResult.
//   - errors.go: annotation helpers over the domain error taxonomy.
//   - tracker.go: Tier Capacity Tracker (per-tier locked bookkeeping).
//   - safety.go: Safety Validator (hard ceiling, then capacity).
//   - transfer.go: Transferer and the simulated transfer used by default.
//   - detach.go: runs transitions independent of the caller's context.
//   - load.go / unload.go / swap.go: the transitions themselves.
//   - optimize.go: caller-invoked rebalancing strategies.
//   - status_report.go: Status snapshot and residency queries.
//   - events.go, eventpub_*.go: lifecycle event publishing.
//
// Only one transition may be in flight per model id; a second one fails fast with a
// Busy error. Capacity checks and reservations for a tier happen under that tier's lock,
// so concurrent loads can never overshoot a limit.
package manager
