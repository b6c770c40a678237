// Package refresh coordinates the exchange of a refresh credential for a new
// credential pair so that at most one exchange is in flight per process, no
// matter how many requests fail as unauthorized at the same time.
//
// The first caller of Coordinator.Await after the access credential stops
// working leads an episode: it starts the single exchange while every caller
// arriving during the episode is queued behind it. When the exchange
// completes, all queued callers are released in arrival order with the same
// outcome. On failure the credential store is cleared and a session-ended
// event is emitted exactly once for the episode.
package refresh
