/*
Package correlate ties browser journeys to backend request spans.

The client-side Injector wraps outbound business API calls: it stamps
the journey's trace id, the journey's root span id as parent-span-id,
and the session id onto the request headers, then records the call as a
child span on the journey whether it succeeded or failed.

The server-side Middleware reads the same headers off inbound requests,
attaches them as browser.* attributes to the active request span, and
acknowledges recognized correlation with an x-backend-trace-correlation
response header. Backend spans for a correlated request can then be
attributed to the originating journey in the trace store.
*/
package correlate
