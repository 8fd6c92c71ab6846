/*
Package session implements session management and persistence orchestration.

A Manager owns the tree every session runs over. Each operation loads the
persisted FlowState, rehydrates an engine, applies the transition and saves
the result, all under a per-session lock. Concurrent access across replicas
is coordinated with an optional DistributedLocker.
*/
package session
