/*
Package scheduler provides execution loops: single goroutines working off
an unbounded FIFO of tasks.

A loop is the execution context of asynchronous queries and observations.
Tasks find their loop in the context they are called with, so work started
from a task can continue inline instead of being queued again:

	loop := scheduler.New("main")
	defer loop.Close()

	loop.Dispatch(ctx, func(ctx context.Context) {
	    // runs on loop
	    loop.Dispatch(ctx, next) // runs inline
	})

Panicking tasks are logged and do not stop the loop.
*/
package scheduler
