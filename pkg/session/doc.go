/*
Package session runs concurrent play sessions over compiled stories.

A Manager keeps one engine per session ID, serializes operations on each
session with a reference-counted lock (plus an optional distributed lock for
multi-replica deployments), and persists snapshots through a SaveStore.
*/
package session
