/*
Package sandbox executes preview documents headlessly inside goja.

A Runtime is an isolated goja VM with a browser-like global scope: window,
a document backed by a parsed HTML tree, console capture, a timer queue and
a parent.postMessage bridge. The bridge is the only way out of the VM; the
host sees nothing else the script does except the DOM it leaves behind.

Node globals (require, process, module) are removed, the call stack is
bounded and every run is interrupted when its timeout or context expires.

# Execution model

Scripts run in order, like inline script tags. An uncaught exception in one
script is dispatched to window "error" listeners and the next script still
runs. Timers queued with setTimeout run after the last script, in order and
without real delays, up to a fixed budget.

# Usage

	pool, _ := sandbox.NewPool(sandbox.DefaultConfig(), 2)
	defer pool.Close()

	dom, _ := sandbox.ParseDOM(document)
	result, err := pool.Execute(ctx, sandbox.Request{
		Scripts:   scripts,
		DOM:       dom,
		OnMessage: func(data any) { channel.Post(data) },
	})
*/
package sandbox
