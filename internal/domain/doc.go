// Package domain contains the core entities and value objects for rpmsgbench.
//
// This package has no dependencies on infrastructure concerns (file
// descriptors, signals, logging) and contains only the measurement model.
//
// # Entities
//
//   - [Payload]: a sequence-numbered message sent to the remote unit
//   - [DeliveryEvent]: a decoded inbound frame stamped with its receive instant
//   - [Ledger]: an insertion-ordered, append-only id -> instant mapping
//   - [Anomaly]: a recoverable condition observed during a run
//
// Errors are sentinel values checked with errors.Is; [IsFatal] separates
// conditions that abort a run from those that are logged and excluded from
// statistics.
package domain
