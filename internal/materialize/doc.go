/*
Package materialize converts accepted client telemetry into backend spans.

Each event's data object is shape-discriminated at the ingestion
boundary into a tagged variant: payloads carrying "journey_name" become
JourneyPayload, payloads carrying only "name" become EventPayload.
Journeys materialize as spans named browser.journey.<name>, standalone
events as browser.event.<name>. Attribute maps are flattened to scalar
values namespaced under browser.*; nested objects and arrays are
dropped. Client-reported timestamps and durations are trusted, not
re-derived. Completed journeys additionally carry a 0-100 performance
score derived from their web vitals.
*/
package materialize
