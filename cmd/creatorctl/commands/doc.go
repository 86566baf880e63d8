// Package commands wires the creatorctl CLI. The root command is the
// composition root: it loads configuration once and builds the single
// session root, store, event publisher and chain registry shared by every
// subcommand.
package commands
