// Package verification drives one resume through the verification backend:
// fetch the parsed resume, launch verification with the resolved social
// handles, poll until the job settles, then fetch the score.
//
// The Orchestrator is an event-driven state machine. Every stimulus (a
// caller's Start, Retry or Teardown, a finished network call, a fired timer)
// is an Event handed to Advance, which handles one event at a time. Network
// calls run on their own goroutine and report back through Advance tagged
// with the attempt generation that issued them; events from an older attempt
// or arriving after teardown are dropped. At most one network call and one
// timer are outstanding at any moment.
package verification
