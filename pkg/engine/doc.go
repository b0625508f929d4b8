// Package engine defines the boundary to the external rule engine that
// evaluates SQL against lint rules, together with the adapters that reach
// one: a subprocess adapter speaking JSON over stdin/stdout, an HTTP
// adapter for remote evaluators, and a circuit breaker wrapper.
//
// The harness never parses SQL or implements rules itself; everything
// behind this boundary is the collaborator's business.
package engine
