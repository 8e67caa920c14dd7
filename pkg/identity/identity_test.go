package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/identity"
	"github.com/marmos91/maidnode/pkg/ids"
)

func mkIdentity(b byte) ids.Identity {
	var id ids.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestNewRejectsShortSecret(t *testing.T) {
	_, err := identity.New(ids.NodeId(mkIdentity(0x01)), []byte("short"), "test", time.Minute)
	require.ErrorIs(t, err, identity.ErrShortSecret)
}

func TestStampAndVerifyPmidRegistration(t *testing.T) {
	node := ids.NodeId(mkIdentity(0x01))
	id, err := identity.New(node, make([]byte, 32), "test-issuer", time.Minute)
	require.NoError(t, err)

	maidName := mkIdentity(0x02)
	pmidName := mkIdentity(0x03)

	stamp, err := id.StampPmidRegistration(maidName, pmidName, true)
	require.NoError(t, err)
	require.NotEmpty(t, stamp)

	claims, err := id.VerifyPmidRegistration(stamp)
	require.NoError(t, err)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, node.String(), claims.Subject)
	assert.Equal(t, maidName.String(), claims.MaidName)
	assert.Equal(t, pmidName.String(), claims.PmidName)
	assert.True(t, claims.Unregister)
}

func TestVerifyRejectsTamperedStamp(t *testing.T) {
	id, err := identity.New(ids.NodeId(mkIdentity(0x01)), make([]byte, 32), "test", time.Minute)
	require.NoError(t, err)

	stamp, err := id.StampPmidRegistration(mkIdentity(0x02), mkIdentity(0x03), false)
	require.NoError(t, err)

	tampered := append([]byte(nil), stamp...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = id.VerifyPmidRegistration(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signer, err := identity.New(ids.NodeId(mkIdentity(0x01)), make([]byte, 32), "test", time.Minute)
	require.NoError(t, err)
	other, err := identity.New(ids.NodeId(mkIdentity(0x01)), append(make([]byte, 31), 0x01), "test", time.Minute)
	require.NoError(t, err)

	stamp, err := signer.StampPmidRegistration(mkIdentity(0x02), mkIdentity(0x03), false)
	require.NoError(t, err)
	_, err = other.VerifyPmidRegistration(stamp)
	require.Error(t, err)
}
