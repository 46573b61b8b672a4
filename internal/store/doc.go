// Package store defines the persistence interfaces and shared database
// helpers used by the rest of the application. Concrete implementations
// live in internal/platform/postgres and internal/store/memory.
package store
