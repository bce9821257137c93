// Package connectors holds the sources family history documents are read
// from. The filesystem connector reads and watches a local directory.
package connectors
