/*
Package resilience provides a three-state circuit breaker.

The transport sender wraps telemetry uploads in a breaker so a dead
ingestion endpoint fails fast instead of stacking up blocked sends.

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                      [failure]
	                                           |
	                                           v
	                                         Open

# Usage

	breaker := resilience.New("telemetry", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.Call()
	})
*/
package resilience
