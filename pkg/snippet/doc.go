// Package snippet defines the read-only snippet projection consumed by the
// evaluation engine.
//
// A Snippet is a row from one of two storage tables (site-level or
// network-level). Its Scope decides which dispatcher handles it and at which
// lifecycle point:
//
//   - head-content, footer-content: printed verbatim by the content dispatcher
//   - global, single-use, admin, front-end: executed by the function dispatcher
//   - condition: evaluated for its truth value only, never executed
//
// A non-zero ConditionID gates a snippet on the result of the condition
// snippet with that id.
package snippet
