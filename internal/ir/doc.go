// Package ir provides the type model shared by every tfverify package.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. Scalar and tensor types are
// immutable and carry no back-references, so they can be shared freely
// between concurrent verification readers.
//
// Key design constraints:
//   - A reference scalar type and its value type are distinct identities;
//     Resolve maps one to the other
//   - Dimension sizes are non-negative or DynamicDim
//   - Resource and variant subtypes are tensor types, kept in declaration order
//   - Canonical JSON (RFC 8785) is the only encoding used for fingerprints
package ir
