// Package ratelimit paces posts sent to the destination network.
//
// Two strategies are available:
//
// Sliding window (default):
//   - At most N posts in any rolling minute
//   - Posts are spread evenly once the window is full
//
// Token bucket:
//   - Up to N posts back to back, then a pause until the minute elapses
//
// Both implement Limiter. Wait takes a context so a cancelled run stops
// waiting immediately:
//
//	limiter, err := ratelimit.New(ratelimit.StrategyWindow, 10)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// publish
//
// A rate of zero yields Unlimited, which never blocks.
package ratelimit
