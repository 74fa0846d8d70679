// Package warehouse provides the in-process storage context that every
// pipeline stage reads from and writes to.
//
// # Partitions
//
// Tables live in named logical partitions that mirror the layers of the
// mart: Raw, Staging, Intermediate and Marts. A table is identified by its
// partition and name and holds a typed row slice.
//
// # Handles
//
// A stage never touches the Warehouse directly. It acquires a Handle at the
// start of its run and releases it at the end:
//
//	h := wh.Acquire(ctx, "staging")
//	defer h.Release()
//	rows, err := warehouse.Read[ingest.Record](h, warehouse.Raw, "customers")
//	warehouse.Replace(h, warehouse.Staging, "stg_customers", customers)
//	return h.Commit()
//
// Writes made through a Handle are buffered and only become visible to other
// handles on Commit, where each buffered table replaces the previous build
// of that table. Releasing a Handle without committing discards its writes,
// which leaves the prior build of those tables untouched.
//
// Handles do not share a transaction. A later stage failing does not undo
// what an earlier stage already committed.
package warehouse
