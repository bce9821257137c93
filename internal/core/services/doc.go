// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services hold no state between calls beyond their injected ports, and
// depend only on domain, ports, the logger and golang.org/x/sync.
package services
