// Package main provides the entry point for the stubreport CLI.
//
// stubreport turns API documentation registry dumps into report artifacts:
// a flat changelog, a coverage manifest, a version-grouped feature list and
// type index pages. It keeps a snapshot history so two builds can be compared.
//
// Usage:
//
//	stubreport generate registry.yaml
//	stubreport generate --mode coverage --mode features registry.yaml
//	stubreport compare sketchup-api
//
// See --help for all available options.
package main

func main() {
	Execute()
}
