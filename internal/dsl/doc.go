// Package dsl parses Dify workflow DSL documents and derives the catalog
// metadata the sync pipeline stores alongside them: node inventories,
// capability flags, content fingerprints, slugs, and inferred
// category/tag classifications.
//
// Parsing is deliberately tolerant. The upstream DSL format drifts as new
// node types and fields appear, so the schema recognises known sections
// and passes everything else through untouched. Only structural hazards
// (oversized documents, pathological nesting, non-mapping roots) reject a
// document outright.
package dsl
