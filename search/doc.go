// Package search retrieves stored chunks by semantic similarity. An
// Engine runs a single backend or fans a query out across several,
// degrading gracefully when individual backends fail.
package search
