/*
Package ports defines the driven ports (interfaces) for the Bardic engine.

These interfaces decouple story hosting from concrete storage, allowing the
same session manager and transports to run against memory, files, Redis or
SQLite.

# Key Interfaces

  - StoryLoader: Resolves story IDs to compiled documents.
  - SaveStore: Persists and lists save snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
