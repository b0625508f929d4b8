// Package harness runs fixture suites against a rule engine and checks
// each declared outcome: pass cases must produce no violation, fail
// cases must produce one, and a declared fix must match the engine's
// auto-fixed SQL byte for byte.
//
// Cases evaluate independently on a bounded worker pool with a per-case
// timeout. Mismatches and timeouts are per-case failures collected into
// the report; an unreachable engine aborts the whole run.
package harness
