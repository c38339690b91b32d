// Package graph assembles stages and routers into a validated orchestration graph.
//
// A graph is built once, up front, and is immutable afterwards. Build fails fast
// on dangling route targets, an unknown entry stage, and declared writes the
// schema lacks, so every decision a router can produce at run time names either
// a registered stage or the End sentinel. Cycles are allowed; the executor's step
// budget bounds them.
package graph
