// Package datasets registers the enrollment datasets with the core registry.
// Import this package to ensure all datasets are registered.
package datasets

// This file exists to provide a single import point.
// Each dataset file uses init() to register its definition.

// Column names shared by every aggregation level of the census snapshots.
const (
	ColYear    = "NU_ANO_CENSO"
	ColNetwork = "REDE"
	ColUF      = "SG_UF"
)
