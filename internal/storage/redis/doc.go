// Package redis stores session records in Redis, one string key per record.
package redis
