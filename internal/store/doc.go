// Package store provides a SQLite-backed library of plant layouts.
//
// Layouts are stored by name as JSON documents together with a few summary
// counts for listing. Saving an existing name replaces the document and
// bumps its revision. Documents are validated on the way in and again on
// the way out, so a stored layout always builds a plant.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Listing order is name ASC COLLATE BINARY so output is stable across runs.
package store
