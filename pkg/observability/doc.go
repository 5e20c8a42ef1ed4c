/*
Package observability turns engine lifecycle hooks into logs and metrics.

LoggingHooks writes one structured record per event, Metrics counts passage
visits, jumps, choices and inputs as Prometheus series, and Combine fans a
single engine's events out to several hook sets.
*/
package observability
