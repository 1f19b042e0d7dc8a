// Package io reads and writes family trees as JSON, YAML and SQL.
//
// # JSON and YAML
//
// Both formats share one layout, the same one the file store keeps on disk:
//
//	{
//	  "version": 1,
//	  "members": [
//	    {"id": "1", "name": "Arthur Robinson", "role": "Patriarch", "gender": "male", "x": 500, "y": 150}
//	  ],
//	  "connections": [
//	    {"id": "c1", "sourceId": "1", "targetId": "2", "sourceHandle": "bottom", "targetHandle": "top", "label": "Son"}
//	  ]
//	}
//
// Imports are checked before anything is returned: every record must pass
// field validation, ids must be unique, and every connection must point at
// members in the same document. A document with several members flagged as
// self keeps only the first flag.
//
// # SQL
//
// [WriteSQL] emits CREATE TABLE statements followed by one INSERT per record,
// in a dialect both SQLite and PostgreSQL accept. SQL is export only.
//
// # Formats
//
// [Export] and [Import] pick the format from the file extension
// (.json, .yaml/.yml, .sql); [ParseFormat] accepts the names used by the
// --format flag.
package io
