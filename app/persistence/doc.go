// Package persistence provides the storage gateway for timeblock.
//
// A Session owns one SQLite connection for its whole lifetime. It is opened with Open
// (or With, which also guarantees Close on every exit path) and executes read queries,
// write queries and multi-statement scripts on that connection.
//
// Sessions never panic on engine errors. Every failure is logged as a diagnostic and
// returned as *QueryError, while the value part of the result stays safe to use:
// an empty row set for reads and an invalid sql.NullInt64 for writes. A session which
// failed to connect stays usable in this sense, all its calls fail with KindPrecondition.
//
// Schema creation is a separate strategy (Bootstrapper) selected by Config.Bootstrap,
// TimeblockSchema is the one used by the application.
package persistence
