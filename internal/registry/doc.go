// Package registry loads documentation registry dump files.
//
// The documentation parser that reads the stub sources is an external tool.
// It hands its object graph to stubreport as a dump file in YAML or JSON:
//
//	name: sketchup-api
//	entities:
//	  - path: Sketchup::Model
//	    type: class
//	    namespace: Sketchup
//	    tags: {version: "SketchUp 6.0"}
//	  - path: Sketchup::Model#entities
//	    type: method
//	    namespace: Sketchup::Model
//	    scope: instance
//	    tags: {version: "SketchUp 2017 M1"}
//
// Design decision: JSON is accepted through the YAML decoder because YAML
// 1.2 is a superset of JSON, so one code path serves both formats.
package registry
