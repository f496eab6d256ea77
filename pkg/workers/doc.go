// Package workers implements the producer and consumer loops that exchange
// messages through a bounded queue.
//
// Both loops run until their context is canceled and report every action to
// an eventlog.Writer:
//
//	P1: Sent message: msg-1
//	P1: Got interrupt signal while waiting to send message: msg-9
//	C1: Consumed message: msg-1
//	C1: Got interrupt signal while waiting for new message
//	P1, C1: Shutting down
//
// A loop that observes cancellation writes "Shutting down" exactly once and
// returns nil. A failing message source ends the producer with an error and
// no shutdown line. Producer and Consumer satisfy workerpool.Task.
package workers
