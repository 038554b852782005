// Package pathresolve turns destination templates into concrete destination
// paths. It expands user placeholders, validates path syntax before any I/O,
// and probes for collision-free filenames.
package pathresolve
