// Package harness runs verification scenarios against a dialect catalog.
//
// A scenario names the descriptor directories to load and a list of operation
// instances. Each instance is built from type notation, verified, and its
// derived attributes evaluated; the outcome is compared with the instance's
// expectations.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: broadcast-ref
//	description: "What this scenario checks"
//	specs:
//	  - ../specs
//	dialect_version: "2.15.0"     # optional, defaults to the dialect header
//	instances:
//	  - kind: tf.AddV2
//	    location: add0
//	    operands: { x: ["tensor<4xf32>"], y: ["tensor<4x!tf.f32ref>"] }
//	    results: { z: ["tensor<4xf32>"] }
//	    attrs: { padding: SAME }
//	    expect:
//	      diagnostics: []           # exact multiset of kinds; [] means clean
//	      derived: { T: f32 }
//	  - kind: tf.AddV2
//	    location: add1
//	    operands: { x: ["tensor<2x4xf32>"], y: ["tensor<3x4xf32>"] }
//	    build: broadcast_binary     # results are inferred instead of listed
//	    expect:
//	      build_error: NON_BROADCASTABLE
//
// Spec paths are relative to the scenario file. Slots missing from the
// operands or results maps are bound to no values.
//
// # Expectations
//
//   - diagnostics: the kinds reported by verification, compared as a multiset.
//     An entry that lists slots must match a diagnostic naming exactly those slots.
//   - derived: subset match of derived attribute values in notation form.
//   - build_error: the diagnostic kind of a failed result-type inference.
//
// # Golden Reports
//
// AssertGolden compares the canonical JSON form of a report with
// testdata/golden/<name>.golden. Fingerprints and messages are left out so the
// files stay stable across wording changes. To regenerate:
//
//	go test ./internal/harness -update
package harness
