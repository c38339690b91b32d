/*
Package observability provides tools for monitoring the Relay executor.

It includes Prometheus metrics and structured audit logging, both fed by
domain.LifecycleHooks. Combine them with domain.ChainHooks.
*/
package observability
