// Package config loads the JSON configuration of the creator client: app
// identity and target chain, session storage backend, chain endpoints,
// event publishing and logging.
package config
