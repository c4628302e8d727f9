// Package integration provides integration tests for the monitoring station.
// These tests run the complete server against real satellite HTTP servers and
// a file cache, including live configuration reloads.
package integration
