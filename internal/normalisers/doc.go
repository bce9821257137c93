// Package normalisers turns family history files into plain text. Each
// normaliser knows how to strip one markup format; the Registry picks one by
// file extension.
package normalisers
