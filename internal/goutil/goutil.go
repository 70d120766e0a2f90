package goutil

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine, logging any panic with its stack before
// re-panicking. The curses UI owns the terminal and swallows stderr, so
// without this a crashing goroutine dies silently.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
