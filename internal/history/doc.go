// Package history provides SQLite-based storage for past scan reports.
//
// Each completed scan is stored as a single row: summary columns for
// cheap listing queries plus the full report serialized as JSON.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package history
