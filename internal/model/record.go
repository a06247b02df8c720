package model

// RawRecord is the intermediate type produced by catalog sources and consumed
// by the loader's normalizer.
type RawRecord struct {
	ID     string         // source-level record id (e.g. Airtable "rec..."), may be empty
	Source string         // provider name (e.g. "airtable", "ndjson")
	Fields map[string]any // provider fields, shape not trusted
}
