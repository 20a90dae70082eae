// Package mlfq implements a user-space thread scheduler using a multilevel
// feedback queue.
//
// Threads are registered with a [Scheduler] and always enter the highest
// level. A single dispatch loop, started with [Scheduler.Run], services the
// first non-empty level in strict priority order: it starts or resumes the
// thread at the head of that level, grants it a level specific quantum, then
// pauses it again. Threads that consume their whole turn are demoted, so
// short-lived interactive work is serviced almost immediately whilst CPU bound
// work sinks towards the lowest level, where it is serviced round robin.
// Lower levels yield at every sub-interval boundary as soon as higher priority
// work appears.
//
// The scheduler knows nothing about the work a thread performs. It drives an
// opaque [Runnable] through Start, Pause, Resume and Alive. [Thread] is a
// goroutine backed implementation whose body cooperates by calling [Yield] at
// convenient checkpoints.
//
// Termination is two-phase. A thread flags itself with
// [Scheduler.DeleteThread], and the dispatch loop reaps it (removing it from
// its level and releasing its identifier) the next time it is observed at the
// head of a level.
package mlfq
