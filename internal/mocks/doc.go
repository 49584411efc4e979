// Package mocks provides centralized mock implementations for testing.
//
// Instead of defining inline mocks in individual test files, these
// standardized implementations are shared across test packages. Each mock
// exposes function fields to override individual methods plus simple default
// behavior backed by in-memory data, so most tests need no overrides at all.
package mocks
