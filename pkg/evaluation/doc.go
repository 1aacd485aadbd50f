// Package evaluation decides, per request, which stored snippets run and in
// which order.
//
// Two dispatchers are built fresh for every request:
//
//   - FunctionDispatcher executes function snippets in two passes.
//     EvaluateEarly runs unconditional snippets and defers the rest;
//     EvaluateConditional evaluates the deferred conditions once each and
//     runs the snippets whose condition holds.
//   - ContentDispatcher prints head and footer content snippets, loading
//     them lazily on the first render.
//
// # Gating
//
// Before a function snippet runs, the dispatcher applies in order:
//
//  1. single-use deactivation, which always happens
//  2. the currently-editing guard (early pass only)
//  3. the allow_execute filter chain
//
// Safe mode, set globally or through the execute_snippets filter chain,
// skips both function passes entirely.
//
// # Conditions
//
// Missing or failed conditions are treated differently by the dispatchers.
// A content snippet whose condition is unknown is printed; a function
// snippet whose condition is unknown is skipped. Evaluation errors count as
// false and are logged.
//
// Dispatchers are not safe for concurrent use.
package evaluation
