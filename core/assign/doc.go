// Package assign implements the assignment optimization and response
// tracking engine. A request is matched against the eligible partner pool,
// candidates are scored and ranked, and the best one is proposed. The
// proposal waits for the partner's response inside a configured window;
// declines and expiries feed back into the pipeline with the failed partner
// excluded, until a partner accepts or the pool is exhausted and the request
// is escalated.
//
// Main entry points:
//   - HardConstraintFilter: eligibility filtering
//   - WeightedScorer: multi-factor candidate scoring
//   - Manager: proposal lifecycle and reassignment
//   - TimeoutWatcher: deadline-driven expiry
package assign
