// Package vault stores opaque, already-sealed secret blobs by key.
//
// Two backends implement Repository:
//
//   - SQLiteRepository persists into the secure_items table of a local SQLite
//     database (modernc.org/sqlite). The schema is applied with goose from the
//     embedded migrations package when the database is opened.
//   - MemoryRepository keeps items in a map and is used for ephemeral sessions
//     and tests.
//
// Values are never interpreted here; encryption happens one layer up in the
// token store. Get returns (nil, nil) for a missing key so callers can treat
// absence and emptiness alike.
package vault
