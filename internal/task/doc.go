// Package task implements the bounded-concurrency scheduler at the core of
// the service, plus the persistence-aware runner built on top of it. The
// Scheduler admits submitted operations in FIFO order up to a fixed
// concurrency limit and exposes each outcome through a Handle; the Runner
// records job lifecycle transitions in a store and recovers unfinished jobs
// after a restart.
package task
