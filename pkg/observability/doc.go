/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured audit logs.

Both are exposed as domain.LifecycleHooks, so they can be merged and handed
to the engine or the session manager without either knowing about them.
*/
package observability
