// Package batch turns token actions into ordered call batches and executes
// them through a connected wallet. When the wallet declares atomic multi-call
// support for the target chain the whole batch is submitted as one unit;
// otherwise the calls are submitted one after another.
//
// Sequential execution gives no atomicity: if a later call fails or is
// rejected, earlier calls stay submitted. Only the reference of the last
// submitted call is returned; intermediate references are logged but not
// surfaced to the caller.
package batch
