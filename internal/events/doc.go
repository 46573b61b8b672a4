// Package events defines the application's internal event types and the
// emitter used to decouple job submission from job execution. Services
// publish JobRequestEvents without knowing which handlers consume them.
package events
