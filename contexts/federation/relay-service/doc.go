// Package relayservice implements community fan-out inside the federation
// context.
//
// A community acts as a relay hub: accepted activities addressed to it are
// wrapped in an Announce envelope and redelivered to known remote
// followers. The module owns the persisted forward ledger that keeps
// redelivered activities from being announced twice, the community
// follower set, and the workers that consume core events and prune the
// ledger.
package relayservice
