// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// Store is the single persistence interface. SQLiteStore implements it on
// modernc.org/sqlite; MockStore implements it in memory for unit tests.
//
// # Data Models
//
//   - Project: a saved workspace project, optionally bound to a repository
//   - Credential: a provider access token stored for a user
//   - NotificationRecord: the notification a bootstrap run surfaced
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// An in-memory database (":memory:") is limited to one connection so every
// query sees the same schema.
//
// # Error Handling
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateProject: Project key already exists
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(":memory:") or a
// temp-dir path for integration tests with real SQLite.
package store
