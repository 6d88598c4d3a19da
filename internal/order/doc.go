// Package order holds the canonical order model and the status lifecycle.
// The lifecycle table in status.go is the single source of truth for which
// status may follow which, and for the confirm/cancel row actions derived
// from a status. Nothing here performs I/O or returns errors.
package order
