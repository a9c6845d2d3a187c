// Package core runs catalog imports.
//
// The pure pipeline lives in packages csv, schema, extract and catalog. This
// package connects it to the two I/O boundaries, reading existing entries
// before reconciliation and upserting the batch after, and adds the pieces a
// long-running service needs around that.
//
// # Import Flow
//
//  1. [Service.Import] takes a slot from the [ImportLimiter]
//  2. Products are extracted and their stored state is fetched, while the
//     product media and managed content are joined into an image mapping
//  3. The products are reconciled into an upsert batch
//  4. The batch is written through [Store.Upsert] in one transaction
//  5. An [ImportRun] is recorded; failure here is logged, never returned
//
// [Service.Plan] stops after step 3.
//
// # Error Handling
//
// [ErrNoProducts] and [ErrTooManyImports] are sentinels for errors.Is.
// Store failures come back wrapped with the stage that failed. [MapError]
// turns any of them into a [UserMessage] with a support code:
//
//   - IMP001-IMP002: Import errors (no products, system busy)
//   - FILE001-FILE004: File errors (size, missing, location)
//   - REQ001-REQ004: Request errors (cancelled, timeout, rate limit, malformed upload)
//   - DB001-DB006: Database errors
package core
