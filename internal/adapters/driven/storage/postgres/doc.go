// Package postgres implements the mapping and run stores on PostgreSQL
// using a pgx connection pool. Selected with store.driver = "postgres".
package postgres
