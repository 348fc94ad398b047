// Package core provides the domain logic of the listings backend.
//
// It is independent of HTTP and of the database driver: persistence is
// reached through the [Store] and [Repository] interfaces, implemented by
// the database package and by in-memory fakes in tests.
//
// # Buildings
//
// [Service] fetches, searches, creates and updates buildings. Search runs its
// count and page fetch in one read-only snapshot and clamps the requested page
// with [Paginate]. Create and Update verify amenity and heating ids before
// writing and reject with a [NotFoundError] listing every missing id. Update
// applies only the fields present in a [BuildingUpdate], using [Field] to tell
// an absent field from an explicit null.
//
// # Ingestion
//
// [Ingester] imports .csv, .tsv and .xlsx listing files from a directory:
//
//  1. Rows are loaded (BOM and invalid UTF-8 tolerant) and the header located
//  2. Only status "for_sale" rows are kept
//  3. Cells are sanitized with [ParseFloat] and converted by [Converter]
//  4. All records of the file are inserted in one transaction
//  5. The file moves to the processed or errored directory
//
// [Scheduler] runs the Ingester on a fixed interval and skips ticks that fire
// while a run is still active.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB009: Database errors (duplicates, constraints, connections)
//   - NF001: Missing records
//   - VAL002-VAL008: Validation errors (numbers, ranges, missing columns)
//   - FILE001-FILE007: File errors (size, encoding, format)
//   - ING001, AUTH001-AUTH002, RATE001
package core
