package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Transitions ----------

func TestEnableBootstrap_SetsWindowFields(t *testing.T) {
	p := AuthProfile{Type: AuthTypeBasic, Username: "CP1"}
	until := time.Now().Add(30 * time.Minute)

	p.EnableBootstrap(until)

	assert.Equal(t, AuthTypeBasic, p.Type)
	assert.True(t, p.AllowNoAuthBootstrap)
	require.NotNil(t, p.NoAuthUntil)
	assert.Equal(t, until, *p.NoAuthUntil)
	assert.True(t, p.BootstrapRequireIPAllowlist)
	assert.Equal(t, "CP1", p.Username)
}

func TestSetBasic_ClearsAllBootstrapFields(t *testing.T) {
	p := AuthProfile{Type: AuthTypeBasic}
	p.EnableBootstrap(time.Now().Add(time.Hour))

	p.SetBasic()

	assert.Equal(t, AuthTypeBasic, p.Type)
	assert.False(t, p.AllowNoAuthBootstrap)
	assert.Nil(t, p.NoAuthUntil)
	assert.False(t, p.BootstrapRequireIPAllowlist)
}

func TestDisableBootstrap_LeavesAllowlistRequirement(t *testing.T) {
	p := AuthProfile{Type: AuthTypeBasic}
	p.EnableBootstrap(time.Now().Add(time.Hour))

	p.DisableBootstrap()

	assert.False(t, p.AllowNoAuthBootstrap)
	assert.Nil(t, p.NoAuthUntil)
	// Only the in-force flag and expiry reset; the requirement flag survives.
	assert.True(t, p.BootstrapRequireIPAllowlist)
}

func TestForceMTLS_ClosesBootstrapWindow(t *testing.T) {
	p := AuthProfile{Type: AuthTypeBasic, SecretHash: "abc", SecretSalt: "123"}
	p.EnableBootstrap(time.Now().Add(time.Hour))

	p.ForceMTLS()

	assert.Equal(t, AuthTypeMTLS, p.Type)
	assert.False(t, p.AllowNoAuthBootstrap)
	assert.Nil(t, p.NoAuthUntil)
	assert.False(t, p.BootstrapRequireIPAllowlist)
	// Credential material is kept: mtls does not erase the basic secret.
	assert.Equal(t, "abc", p.SecretHash)
}

// ---------- Effective ----------

func TestEffective_PriorityOrder(t *testing.T) {
	until := time.Now().Add(time.Hour)

	basic := AuthProfile{Type: AuthTypeBasic}
	assert.Equal(t, ProfileBasic, basic.Effective())

	bootstrap := AuthProfile{Type: AuthTypeBasic}
	bootstrap.EnableBootstrap(until)
	assert.Equal(t, ProfileMTLSBootstrap, bootstrap.Effective())

	mtls := AuthProfile{Type: AuthTypeMTLS}
	assert.Equal(t, ProfileMTLS, mtls.Effective())
}

func TestEffective_MTLSWinsOverStaleBootstrapFlag(t *testing.T) {
	// A document written by older tooling can carry both the mtls type and a
	// leftover bootstrap flag. mtls must win.
	p := AuthProfile{Type: AuthTypeMTLS, AllowNoAuthBootstrap: true}
	assert.Equal(t, ProfileMTLS, p.Effective())
}

func TestEffective_EmptyTypeDefaultsToBasic(t *testing.T) {
	var p AuthProfile
	assert.Equal(t, ProfileBasic, p.Effective())
}
