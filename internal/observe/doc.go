// Package observe holds the plumbing that triggers recording: observable
// objects that notify after each committed write, a cancel-and-reschedule
// debouncer, the schedulers it runs on, and a one-shot readiness signal.
//
// Nothing here knows about journals. The engine wires these pieces to a
// Rewindable's Changed and Flush methods.
package observe
