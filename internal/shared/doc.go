// Package shared holds code used by several packages that belongs to none of
// them. Today that is only testutil: captured slog records, the agronomists
// survey fixture and an in-memory row source for tests.
package shared
