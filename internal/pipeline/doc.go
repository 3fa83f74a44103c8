// Package pipeline contains the scheduler and orchestrator that move a saved
// post from crawl through media transfer and enrichment to a terminal state.
//
// The Scheduler drains a priority queue with a single goroutine, so at most
// one post is processed at a time. The Orchestrator runs the stages for one
// post and records every state transition through the Gateway; progress
// milestones are broadcast as stages complete. Service is the thin facade the
// daemon's HTTP layer calls into.
package pipeline
