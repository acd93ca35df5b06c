// Package core provides the dataset session logic of the EDA workbench.
//
// This package contains the domain logic independent of any UI or transport
// layer. It can be used by web handlers, the CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - DatasetSession: the state machine over one dataset. It keeps the filter
//     base, a linear undo history of immutable table snapshots, and the
//     filters last applied.
//   - Filtering: [ApplyFilterSort] derives a table from the filter base with
//     range and set predicates plus an optional stable sort.
//   - Missing values: [ResolveMissing] drops or fills missing cells once,
//     between load and session initialization.
//   - Service: hosts many sessions keyed by ID, limits concurrent CSV parses,
//     records an audit trail and evicts idle sessions.
//
// # Session Lifecycle
//
//  1. Client calls [Service.Upload] with an io.Reader
//  2. The CSV is parsed under a [LoadLimiter] slot
//  3. Without missing cells the session is initialized at once; otherwise
//     the client picks strategies and calls [Service.ResolveMissing]
//  4. Filters, edits, column deletions and undo move the session through
//     its history; read-only analysis works on [DatasetSession.Current]
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DS001, SES001-SES002, HIS001: session state
//   - COL001, FLT001, MIS001-MIS002, CEL001: dataset operations
//   - ANA001-ANA003, MET001: analysis and custom metrics
//   - FILE001-FILE005, UPL002-UPL005: uploads
//
// # Audit Logging
//
// Every load, mutation, export and metric run is recorded with a severity:
//
//   - Low: filters, undo, exports, metrics
//   - Medium: cell edits, rejected filters
//   - High: loads, missing-value resolution, column deletions
//   - Critical: filter resets, expired sessions
package core
