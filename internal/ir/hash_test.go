package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	doc := map[string]any{
		"name":   "tf.AddV2",
		"traits": []string{"CwiseBinary", "Commutative"},
	}

	a, err := Fingerprint(DomainKind, doc)
	require.NoError(t, err)
	b, err := Fingerprint(DomainKind, map[string]any{
		"traits": []string{"CwiseBinary", "Commutative"},
		"name":   "tf.AddV2",
	})
	require.NoError(t, err)

	assert.Equal(t, a, b, "key order must not affect the fingerprint")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := MustFingerprint(DomainKind, map[string]any{"name": "tf.AddV2"})
	b := MustFingerprint(DomainKind, map[string]any{"name": "tf.SubV2"})
	assert.NotEqual(t, a, b)
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	doc := map[string]any{"name": "tf.AddV2"}
	assert.NotEqual(t,
		MustFingerprint(DomainKind, doc),
		MustFingerprint(DomainCatalog, doc))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestFingerprintHexEncoding(t *testing.T) {
	fp := MustFingerprint(DomainCatalog, []string{})
	assert.Len(t, fp, 64)
	_, err := hex.DecodeString(fp)
	assert.NoError(t, err)
}

func TestFingerprintErrorHandling(t *testing.T) {
	_, err := Fingerprint(DomainReport, map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), DomainReport)

	assert.Panics(t, func() {
		MustFingerprint(DomainReport, nil)
	})
}
