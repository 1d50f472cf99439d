// Package bench evaluates retrieval quality against labeled query sets.
//
// A benchmark runs a fixed set of queries through the search pipeline
// concurrently, computes ranking metrics (nDCG and recall) from graded
// relevance judgments, and compares the aggregate against a recorded
// baseline with a tolerance band. The package consumes only the query
// interface; it never touches storage or index internals.
package bench
