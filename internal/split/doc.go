// Package split implements the receipt expense-split engine: it gives every
// purchased line item a durable key, tracks the people a receipt is divided
// among, records who shares which item, and derives the per-person money
// breakdown. Persistence runs through a SplitBackend; the backend is
// authoritative for a split once one has been saved.
package split
