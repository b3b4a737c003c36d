// Package core provides the data pipeline behind the enrollment dashboard.
//
// The package holds every piece of logic that turns a census snapshot into
// what a user sees, independent of how the snapshot is stored or how the
// result is rendered. It can be driven by the dashboard CLI, a web handler,
// or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - RecordSet: an immutable, ordered table of rows. Every stage returns a
//     new RecordSet and never mutates its input.
//   - Dataset Definitions: one per aggregation level (schools, municipalities,
//     states), registered via the registry.
//   - Column Mapping: the stage / sub-stage / series tree that picks the
//     numeric column a pass works on.
//   - Service: the entry point that runs one pass over a dataset.
//
// # Dataset Registry
//
// Datasets are registered at init time using [Register]:
//
//	core.Register(core.DatasetDefinition{
//	    Info:               core.DatasetInfo{Key: "escolas", Label: "Escolas", FileStem: "dados_escolas"},
//	    YearColumn:         "NU_ANO_CENSO",
//	    NetworkColumn:      "REDE",
//	    DescriptiveColumns: []string{"CO_ENTIDADE", "NO_ENTIDADE"},
//	})
//
// # Pipeline Pass
//
// [Service.Run] executes one pass:
//
//  1. Load the snapshot through a [Source]
//  2. Resolve the selection to a column with [ColumnMapping.Resolve]
//  3. Apply year, network, text and numeric predicates with [Filter]
//  4. Sort descending by the resolved column
//  5. Compute [Aggregate] and the [TopN] ranking
//  6. Clamp the page with [NewPaginator] and build the raw and display tables
//
// Exports of the filtered rows use [ToDelimitedText] and [ToSpreadsheet].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - CFG001-CFG003: Configuration errors (mapping, snapshot missing or unreadable)
//   - MAP001-MAP004: Mapping fallbacks
//   - FLT001: No year selected
//   - EXP001: Export conversion failure
//   - DS001: Unknown dataset
//
// # Number Formatting
//
// Every user-visible number goes through [FormatNumber] or [FormatPercent]:
// "." groups thousands, "," separates two decimals, and integral values
// carry no decimals. Missing values render as "-".
package core
