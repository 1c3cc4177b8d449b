package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// crashHandler is invoked on panic inside Go-spawned goroutines.
// Injectable so the binary can restore the terminal before printing.
var crashHandler atomic.Value // func(any)

// SetCrashHandler installs the process-wide panic handler for Go goroutines
func SetCrashHandler(fn func(any)) {
	crashHandler.Store(fn)
}

// HandleCrash runs the installed handler, or a plain stderr dump when none is set
func HandleCrash(r any) {
	if r == nil {
		return
	}
	if fn, ok := crashHandler.Load().(func(any)); ok && fn != nil {
		fn(r)
		return
	}
	fmt.Fprintf(os.Stderr, "\nCRASH DETECTED: %v\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword so a crash cannot leave the terminal raw.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
