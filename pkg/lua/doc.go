// Package lua provides the sandboxed Lua runtime used to evaluate condition
// snippets and execute function snippets.
//
// Every evaluation gets a fresh State:
//
//	state := lua.NewState(
//	    lua.WithTimeout(2*time.Second),
//	    lua.WithOutput(w),
//	    lua.WithRequest(req),
//	)
//	defer state.Close()
//
//	if err := state.DoString(ctx, code); err != nil {
//	    return err
//	}
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring, require, module and collectgarbage are removed.
// print and echo write to the configured output writer, or nowhere.
//
// # Request
//
// The current request is published as the read-only global table "request"
// with the fields path, query, method, is_admin and is_json.
package lua
