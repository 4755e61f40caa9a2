// Package dispatch implements the event dispatcher that drives the
// scripting subsystem.
//
// A Loop polls the host for events and fans each one out to the registered
// script clients. It moves between three states:
//
//	POLLING    -> waiting in the host's WaitEvent
//	NOTIFYING  -> handling a received event
//	TERMINATED -> the loop has stopped
//
// NONE events keep the loop in POLLING. A SHUTDOWN event, a host failure,
// or cancellation of the run context terminates it. Every other event is
// broadcast through the Notifier before the next poll, so event N reaches
// all clients before event N+1 is requested.
//
// Termination is followed by a two-phase shutdown. When the loop runs on a
// worker goroutine (Start), it first waits for the main context to signal
// completion, then calls the host's Shutdown. When it runs on the calling
// goroutine (Run), Shutdown is called immediately. In both cases Shutdown is
// called exactly once.
//
// Basic usage:
//
//	loop := dispatch.New(h, system,
//		dispatch.WithConfig(dispatch.DefaultConfig()),
//		dispatch.WithLogger(logger),
//	)
//	if err := loop.Start(ctx, mainDone); err != nil {
//		return err
//	}
//	...
//	err := loop.Wait()
package dispatch
