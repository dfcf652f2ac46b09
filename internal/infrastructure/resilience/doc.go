/*
Package resilience guards the package host with a circuit breaker.

A breaker sits in front of every remote module fetch. When the host keeps
failing it opens, fetches fail fast with ErrCircuitOpen and the loader
substitutes stub modules without waiting on the network. After Timeout the
breaker lets a few probes through (half-open) and closes again once they
succeed.

# Usage

	breaker := resilience.New("package-host", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, fetch.ErrNotFound)
		},
	})

	body, err := resilience.Call(breaker, func() ([]byte, error) {
		return download(ctx, url)
	})

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                              Open
*/
package resilience
