// Package podcast owns the job model and the in-memory job store.
//
// A Job tracks one episode request from creation through script generation and
// speech synthesis to a terminal state. The Store is the single source of
// truth for every job: all reads return copies, and all mutation of live jobs
// goes through Advance, which holds the store lock, refuses to touch terminal
// jobs, and rejects backward status transitions. That guard is what lets the
// orchestrator goroutine and the HTTP handlers interleave on the same job
// without a per-job lock.
//
// The store is process-lifetime only. Rescan reconciles it against the audio
// artifacts on disk at startup (and on demand), adopting orphan episodes as
// completed jobs keyed by file stem.
package podcast
