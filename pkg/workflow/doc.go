/*
Package workflow holds the declarative interview graph: named steps bound to
one of four handler kinds (Question, DynamicQuestion, TextInput, FileUpload)
and connected by conditional transitions.

A Builder collects step registrations and Build finalizes them into an
immutable Definition, failing fast on any inconsistency: duplicate names,
dangling transition targets, unreachable steps, or a step whose offered
option literals do not match the literals its outgoing conditions check.
That last check exists because an option/condition vocabulary mismatch is a
silent routing bug at runtime, not an error.

NewDeedDefinition builds the concrete deed interview used in production.
*/
package workflow
