/*
Package session manages live survey sessions inside one process.

A Manager keeps one navigation controller per session ID and serializes every
operation on a session behind a reference-counted mutex, optionally backed by a
distributed lock when several replicas share work. Controllers live in memory only;
when a session reaches a terminal form the Manager writes a Submission to the
configured store.
*/
package session
