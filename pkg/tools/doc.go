// Package tools holds the deterministic helpers stages use around model calls:
// lexical sentiment scoring, keyword pattern detection, extractive summaries,
// record filtering and text utilities. Nothing here performs I/O.
package tools
