/*
Package api provides the operational HTTP surface.

Endpoints:

	GET /healthz            liveness, always 200 while serving
	GET /readyz             readiness, gated on the feed connection
	GET /metrics            Prometheus scrape endpoint
	GET /labels/{subject}   effective labels for a subject
	GET /ws/events          websocket stream of broker events

The server is internal-facing: it binds to the configured ops address
and carries no authentication. Shutdown drains in-flight requests with
a bounded timeout.
*/
package api
