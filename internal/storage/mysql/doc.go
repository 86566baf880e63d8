// Package mysql persists session records in MySQL. It owns the connection
// pool settings and applies the embedded schema migrations on open.
package mysql
