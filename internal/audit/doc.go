// Package audit defines the canonical audit event model and the sinks it
// can be delivered to. Dispatching (buffering, drop accounting) lives in
// the root package; this package owns only the event shape and sink
// contracts so both sides can share them without an import cycle.
package audit
