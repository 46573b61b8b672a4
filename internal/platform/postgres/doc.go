// Package postgres implements the store interfaces on PostgreSQL using
// database/sql with the pgx driver.
package postgres
