// Package mcp implements the resilient gateway client that agents use to
// call backend capabilities.
//
// Every outbound call passes through the same pipeline: the target
// service's definition is resolved, the per-service circuit breaker and
// token bucket gate admission, auth headers are attached, and the transport
// attempt runs inside a retry loop governed by the service's backoff
// policy. Remote failures never surface as Go errors; they come back as a
// Response with Success=false and a populated Error. Only caller mistakes
// (blank service or operation, unknown service, unsupported auth type) are
// returned as errors.
//
//	client, err := mcp.New(services)
//	resp, err := client.Do(ctx, mcp.NewRequest("fraud-detection", "score", params))
//	if err != nil {
//	    // misconfiguration: fix the service map
//	}
//	if !resp.Success {
//	    // remote failure: resp.Error describes it
//	}
//
// One Client instance serves all agents; per-service state never shares a
// lock across services, so a struggling backend cannot throttle traffic to
// healthy ones.
package mcp
