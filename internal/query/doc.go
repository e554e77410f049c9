// Package query implements tern's memoizing semantic query engine.
//
// Every semantic fact the compiler needs (the type of a definition,
// its generics, its predicates) is a query: a named computation,
// memoized per key, answered by a provider registered for the key's
// owning crate. The engine itself computes nothing - it dispatches,
// caches, detects cycles, and binds results to dependency-graph nodes
// so a later incremental layer can tell what a change invalidates.
//
// ARCHITECTURE:
//
// Synchronous recursive dispatch:
// Engine.Get-style accessors (TypeOf, GenericsOf, ...) are ordinary
// function calls. A provider that needs another fact issues a nested
// query through its Context handle, which recurses into the same
// dispatcher. There is no scheduler and no suspension: a nested query
// blocks its caller in the plain recursive-call sense.
//
// Dispatch for one request:
//  1. Memo lookup. Hit: record a read edge and return, no stack
//     interaction, no provider call.
//  2. Miss: scan the in-flight query stack for the same dependency
//     node. Found: fail with CYCLE_DETECTED carrying the ordered
//     frame chain.
//  3. Push a frame, invoke the provider registered for the key's
//     owning crate (a missing registration is a stub that fails with
//     UNSUPPORTED_QUERY - never a default value).
//  4. Pop the frame, bind the result to its node, record an edge from
//     the caller's node, insert into the memo table, return.
//
// INVARIANTS:
//   - At most one memo entry per (kind, key); an entry is never
//     overwritten within a session. A differing re-insert is a
//     purity violation, surfaced loudly.
//   - Providers are selected by the KEY's owning crate, never by the
//     requesting crate.
//   - A (kind, key) pair is never on the stack and in the memo table
//     at the same time: the frame is popped strictly before the
//     insert.
//   - Every exit path (return, cycle, unsupported, provider error)
//     pops exactly the frames it pushed. Failures are not memoized,
//     so retrying the same pair later in the session is well-defined.
//
// The engine and its tables are owned by one goroutine for the
// session's duration. Concurrent use requires a redesign (sharded
// tables plus parking duplicate in-progress misses), not a mutex.
package query
