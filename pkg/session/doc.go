/*
Package session orchestrates safe concurrent access to interview sessions.

The Manager serializes all work on a session behind a per-session mutex
(reference-counted so idle locks are garbage collected) and, optionally, a
distributed lock for multi-replica deployments. Entity mutation inside a
session is not commutative, so two in-flight submissions against the same
session must never interleave.
*/
package session
