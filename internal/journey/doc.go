/*
Package journey implements the client-side instrumentation tracer.

# Overview

A journey is a traced, named user interaction with a start and end,
analogous to a distributed trace. The Tracer owns the table of open
journeys for one session: it records discrete events and timed child
spans against them, derives page-timing, market-session, and web-vitals
attributes, and hands finalized journeys to the transport queue for
delivery to the ingestion service.

# Usage

	tracer := journey.NewTracer(session, sink, logger)

	traceID := tracer.StartJourney("view_portfolio", journey.Attrs{
		"portfolio.id": "pf-123",
	})
	tracer.AddJourneyEvent(traceID, "filter_applied", journey.Attrs{"filter": "tech"})
	tracer.AddJourneySpan(traceID, "fetch_positions", start, end, nil)
	tracer.EndJourney(traceID, nil)

# Failure Model

Instrumentation must never break the primary user flow. Every operation
tolerates unknown trace ids, nil attribute maps, and a nil sink: bad
input is logged at debug level and otherwise ignored. No operation
returns an error or panics.
*/
package journey
