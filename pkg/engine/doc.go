/*
Package engine drives the interview state machine: it applies one response
to one session, runs the step handler, and performs exactly one transition.

Guarantees:

  - A failed step never mutates the session: handlers run against a clone
    that is only persisted after the transition resolves.
  - Extraction gateway calls happen outside the session lock, so a reset is
    never blocked behind a slow upload; results coming back for a session
    that was reset or advanced in the meantime are discarded.
  - The step-sequence counter strictly increases; resubmissions carrying an
    already-applied sequence are rejected as stale, never reapplied.
*/
package engine
