// Package lifecycle drives the snippet dispatchers through one request.
//
// The entry points must be called in order:
//
//	EvaluateEarly → EvaluateConditional → RenderHead → RenderFooter
//
// Each runs at most once. RenderHead may be skipped, but not called after
// RenderFooter. Calls out of order return ErrOutOfOrder without touching the
// dispatchers.
//
// An Engine holds what is shared between requests (store, filters,
// metrics) and builds a fresh Lifecycle, with fresh dispatchers, for each
// request:
//
//	lc := engine.NewLifecycle(reqInfo, functionOutput)
//	err := lc.Run(ctx, w, func(w io.Writer) error {
//	    _, err := w.Write(body)
//	    return err
//	})
package lifecycle
