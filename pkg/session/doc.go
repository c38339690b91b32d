/*
Package session runs the named research systems on behalf of front-ends.

A Manager validates the task, serializes identical concurrent requests (locally
and, with a ports.Locker, across replicas), runs the graph, builds the report
and records the run in a ports.HistoryStore.
*/
package session
