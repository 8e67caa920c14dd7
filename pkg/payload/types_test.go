package payload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
	"github.com/marmos91/maidnode/pkg/payload"
)

func mkIdentity(b byte) ids.Identity {
	var id ids.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestEmptyRoundTrip(t *testing.T) {
	data, err := payload.Empty{}.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseEmpty(data)
	require.NoError(t, err)
	assert.Equal(t, payload.Empty{}, got)
}

func TestEmptyRejectsTrailingBytes(t *testing.T) {
	_, err := payload.ParseEmpty([]byte{0x01})
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))
}

func TestAvailableSizeRoundTrip(t *testing.T) {
	want := payload.AvailableSize{Size: 1 << 40}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseAvailableSize(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameRoundTrip(t *testing.T) {
	want := payload.DataName{Type: uint32(ids.DataTagStructured), RawName: mkIdentity(0xAB)}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataName(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, ids.DataTagStructured, got.Tag())
}

func TestDataNameOrdering(t *testing.T) {
	low := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x01)}
	high := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x02)}
	assert.Negative(t, low.Compare(high))
	assert.Positive(t, high.Compare(low))
	assert.Zero(t, low.Compare(low))

	diffType := payload.DataName{Type: uint32(ids.DataTagStructured), RawName: mkIdentity(0x00)}
	assert.Negative(t, low.Compare(diffType))
}

func TestDataNameAndVersionRoundTrip(t *testing.T) {
	want := payload.DataNameAndVersion{
		Name:    payload.DataName{Type: uint32(ids.DataTagStructured), RawName: mkIdentity(0x01)},
		Version: payload.Version{ID: mkIdentity(0x02), Index: 7},
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameAndVersion(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameOldNewVersionRoundTrip(t *testing.T) {
	want := payload.DataNameOldNewVersion{
		Name:       payload.DataName{Type: uint32(ids.DataTagStructured), RawName: mkIdentity(0x01)},
		OldVersion: payload.Version{ID: mkIdentity(0x02), Index: 1},
		NewVersion: payload.Version{ID: mkIdentity(0x03), Index: 2},
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameOldNewVersion(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameAndContentRoundTrip(t *testing.T) {
	want := payload.DataNameAndContent{
		Name:    payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x09)},
		Content: []byte("hello network"),
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameAndContent(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameAndContentRejectsEmpty(t *testing.T) {
	bad := payload.DataNameAndContent{Name: payload.DataName{RawName: mkIdentity(0x01)}}
	_, err := bad.Serialise()
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))
}

func TestDataNameAndRandomStringRoundTrip(t *testing.T) {
	want := payload.DataNameAndRandomString{
		Name:   payload.DataName{Type: uint32(ids.DataTagPmid), RawName: mkIdentity(0x04)},
		Random: []byte("nonce-bytes"),
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameAndRandomString(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameAndCostAndSizeRoundTrip(t *testing.T) {
	cost := payload.DataNameAndCost{Name: payload.DataName{RawName: mkIdentity(0x01)}, Cost: -5}
	data, err := cost.Serialise()
	require.NoError(t, err)
	gotCost, err := payload.ParseDataNameAndCost(data)
	require.NoError(t, err)
	assert.Equal(t, cost, gotCost)

	size := payload.DataNameAndSize{Name: payload.DataName{RawName: mkIdentity(0x01)}, Size: 4096}
	data, err = size.Serialise()
	require.NoError(t, err)
	gotSize, err := payload.ParseDataNameAndSize(data)
	require.NoError(t, err)
	assert.Equal(t, size, gotSize)
}

func TestDataAndPmidHintRoundTrip(t *testing.T) {
	want := payload.DataAndPmidHint{
		Data: payload.DataNameAndContent{
			Name:    payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x01)},
			Content: []byte("payload bytes"),
		},
		PmidHint: mkIdentity(0x10),
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataAndPmidHint(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataAndPmidHintRejectsEmptyContent(t *testing.T) {
	bad := payload.DataAndPmidHint{PmidHint: mkIdentity(0x01)}
	_, err := bad.Serialise()
	require.Error(t, err)
}

func TestDataNameAndContentOrCheckResultRoundTrip(t *testing.T) {
	withContent := payload.DataNameAndContentOrCheckResult{
		Name:    payload.DataName{RawName: mkIdentity(0x01)},
		Content: []byte("raw bytes"),
	}
	data, err := withContent.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameAndContentOrCheckResult(data)
	require.NoError(t, err)
	assert.Equal(t, withContent, got)

	var digest [payload.CheckResultSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	withCheck := payload.DataNameAndContentOrCheckResult{
		Name:        payload.DataName{RawName: mkIdentity(0x02)},
		CheckResult: &digest,
	}
	data, err = withCheck.Serialise()
	require.NoError(t, err)
	got, err = payload.ParseDataNameAndContentOrCheckResult(data)
	require.NoError(t, err)
	assert.Equal(t, withCheck, got)
}

func TestDataNameAndContentOrCheckResultRejectsBothAndNeither(t *testing.T) {
	var digest [payload.CheckResultSize]byte
	both := payload.DataNameAndContentOrCheckResult{
		Name:        payload.DataName{RawName: mkIdentity(0x01)},
		Content:     []byte("x"),
		CheckResult: &digest,
	}
	_, err := both.Serialise()
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))

	neither := payload.DataNameAndContentOrCheckResult{Name: payload.DataName{RawName: mkIdentity(0x01)}}
	_, err = neither.Serialise()
	require.Error(t, err)
}

func TestPmidHealthRoundTrip(t *testing.T) {
	want := payload.PmidHealth{Serialised: []byte{0x01, 0x02, 0x03}}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParsePmidHealth(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPmidRegistrationRoundTrip(t *testing.T) {
	want := payload.PmidRegistration{
		MaidName:     mkIdentity(0x01),
		PmidName:     mkIdentity(0x02),
		Unregister:   false,
		SignedClaims: []byte("jwt.compact.claims"),
	}
	data, err := want.Serialise()
	require.NoError(t, err)
	got, err := payload.ParsePmidRegistration(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataNameAndContentOrReturnCodeRoundTrip(t *testing.T) {
	content := payload.DataNameAndContent{
		Name:    payload.DataName{RawName: mkIdentity(0x01)},
		Content: []byte("ok"),
	}
	success := payload.DataNameAndContentOrReturnCode{Content: &content}
	data, err := success.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseDataNameAndContentOrReturnCode(data)
	require.NoError(t, err)
	assert.Equal(t, success, got)
	assert.True(t, got.IsSuccess())

	failure := payload.DataNameAndContentOrReturnCode{
		Code: &payload.ReturnCode{Value: payload.ErrValueNoSuchElement, Detail: "not found"},
	}
	data, err = failure.Serialise()
	require.NoError(t, err)
	got, err = payload.ParseDataNameAndContentOrReturnCode(data)
	require.NoError(t, err)
	assert.Equal(t, failure, got)
	assert.False(t, got.IsSuccess())
	assert.Equal(t, merrors.ErrNoSuchElement, got.ErrorCode())
}

func TestDataNameAndContentOrReturnCodeRejectsBothAndNeither(t *testing.T) {
	content := payload.DataNameAndContent{Name: payload.DataName{RawName: mkIdentity(0x01)}, Content: []byte("x")}
	code := payload.ReturnCode{Value: payload.ErrValueInvalidParameter}
	both := payload.DataNameAndContentOrReturnCode{Content: &content, Code: &code}
	_, err := both.Serialise()
	require.Error(t, err)

	neither := payload.DataNameAndContentOrReturnCode{}
	_, err = neither.Serialise()
	require.Error(t, err)
}

func TestStructuredDataNameAndContentOrReturnCodeRoundTrip(t *testing.T) {
	versions := payload.StructuredDataVersions{
		Name:     payload.DataName{Type: uint32(ids.DataTagStructured), RawName: mkIdentity(0x01)},
		Versions: []payload.Version{{ID: mkIdentity(0x02), Index: 1}, {ID: mkIdentity(0x03), Index: 2}},
	}
	success := payload.StructuredDataNameAndContentOrReturnCode{Versions: &versions}
	data, err := success.Serialise()
	require.NoError(t, err)
	got, err := payload.ParseStructuredDataNameAndContentOrReturnCode(data)
	require.NoError(t, err)
	assert.Equal(t, success, got)
	assert.True(t, got.IsSuccess())

	failure := payload.StructuredDataNameAndContentOrReturnCode{
		Code: &payload.ReturnCode{Value: payload.ErrValueUnknown, Detail: "vault-specific code 42"},
	}
	data, err = failure.Serialise()
	require.NoError(t, err)
	got, err = payload.ParseStructuredDataNameAndContentOrReturnCode(data)
	require.NoError(t, err)
	assert.Equal(t, failure, got)
	assert.Equal(t, merrors.ErrUnknown, got.ErrorCode())
}
