// Package redis provides Redis-backed run history and locking.
package redis
