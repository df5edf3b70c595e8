// Package activitycore implements the federation activity core inside the
// federation context.
//
// The module owns inbound activity processing (structural verification,
// actor authorization, type-directed dispatch), remote actor/object
// resolution with per-run fetch budgets, outbound activity construction and
// delivery hand-off, and per-object vote aggregation. It keeps business
// rules in application/domain layers and isolates infrastructure concerns
// behind ports and adapters.
package activitycore
