package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------- NormalizeList ----------

func TestNormalizeList_TrimsAndDeduplicates(t *testing.T) {
	got := NormalizeList([]string{" 10.0.0.5", "10.0.0.5 ", "", "  ", "10.0.0.6"})
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, got)
}

func TestNormalizeList_Idempotent(t *testing.T) {
	once := NormalizeList([]string{"10.0.0.5", "10.0.0.5", " 192.168.1.0/24 "})
	twice := NormalizeList(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeList_AllBlankCollapsesToNil(t *testing.T) {
	assert.Nil(t, NormalizeList([]string{"", "   ", "\t"}))
	assert.Nil(t, NormalizeList(nil))
	assert.Nil(t, NormalizeList([]string{}))
}

func TestNormalizeList_KeepsFirstSeenOrder(t *testing.T) {
	got := NormalizeList([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

// ---------- NormalizeFingerprint ----------

func TestNormalizeFingerprint_StripsColonsAndUppercases(t *testing.T) {
	assert.Equal(t, "AABBCC", NormalizeFingerprint("aa:bb:cc"))
	assert.Equal(t, "AABBCC", NormalizeFingerprint(" AA:BB:CC "))
	assert.Equal(t, "AABBCC", NormalizeFingerprint("aabbcc"))
}

func TestNormalizeFingerprint_Idempotent(t *testing.T) {
	once := NormalizeFingerprint("d4:C3:b2-x")
	assert.Equal(t, once, NormalizeFingerprint(once))
}

func TestNormalizeFingerprint_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeFingerprint(""))
	assert.Equal(t, "", NormalizeFingerprint("  "))
}
