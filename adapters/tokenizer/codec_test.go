package tokenizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const testSecret = "s3cr3t_with_underscore"

var testPrincipal = core.Principal("0xabcdef0000000000000000000000000000000001")

func codecs(t *testing.T) map[string]ports.SessionCodec {
	opaque, err := NewOpaqueCodec(testSecret)
	require.NoError(t, err)
	signed, err := NewJWTCodec(testSecret)
	require.NoError(t, err)
	return map[string]ports.SessionCodec{"opaque": opaque, "jwt": signed}
}

func TestCodecsRoundTrip(t *testing.T) {
	issuedAt := time.UnixMilli(1735689600123)
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			token, err := codec.Mint(core.Session{Class: core.SessionClassNFT, Principal: testPrincipal, IssuedAt: issuedAt})
			require.NoError(t, err)

			session, err := codec.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, core.SessionClassNFT, session.Class)
			assert.Equal(t, testPrincipal, session.Principal)
			assert.Equal(t, issuedAt.Unix(), session.IssuedAt.Unix())

			token, err = codec.Mint(core.Session{Class: core.SessionClassRegular, UserID: "user-7", IssuedAt: issuedAt})
			require.NoError(t, err)
			session, err = codec.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, core.SessionClassRegular, session.Class)
			assert.Equal(t, "user-7", session.UserID)
		})
	}
}

func TestCodecsRejectForeignTokens(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "garbage", "other_nft_" + string(testPrincipal) + "_1", "S3CR3T_with_underscore_nft_" + string(testPrincipal) + "_1"} {
				_, err := codec.Parse(token)
				assert.ErrorIs(t, err, core.ErrTokenInvalid, token)
			}
		})
	}
}

func TestOpaqueCodecFormat(t *testing.T) {
	codec, err := NewOpaqueCodec(testSecret)
	require.NoError(t, err)

	token, err := codec.Mint(core.Session{Class: core.SessionClassNFT, Principal: testPrincipal, IssuedAt: time.UnixMilli(42)})
	require.NoError(t, err)
	assert.Equal(t, testSecret+"_nft_"+string(testPrincipal)+"_42", token)
}

func TestOpaqueCodecParsesMixedCaseAddress(t *testing.T) {
	codec, err := NewOpaqueCodec(testSecret)
	require.NoError(t, err)

	session, err := codec.Parse(testSecret + "_nft_0xABCDEF0000000000000000000000000000000001_1735689600000")
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, session.Principal)
}

func TestOpaqueCodecMalformedNFTSegment(t *testing.T) {
	codec, err := NewOpaqueCodec(testSecret)
	require.NoError(t, err)

	for _, token := range []string{
		testSecret + "_nft_0x123_1",
		testSecret + "_nft_" + strings.Repeat("z", 42) + "_1",
		testSecret + "_nft_" + string(testPrincipal) + "_notatime",
		testSecret + "_nft_" + string(testPrincipal) + "ff_1",
	} {
		_, err := codec.Parse(token)
		assert.ErrorIs(t, err, core.ErrTokenMalformed, token)
	}
}

func TestOpaqueCodecWithoutMarkerIsRegular(t *testing.T) {
	codec, err := NewOpaqueCodec(testSecret)
	require.NoError(t, err)

	session, err := codec.Parse(testSecret + "_" + string(testPrincipal) + "_1")
	require.NoError(t, err)
	assert.Equal(t, core.SessionClassRegular, session.Class)
	assert.Empty(t, session.Principal)
}

func TestJWTCodecRejectsTamperedToken(t *testing.T) {
	codec, err := NewJWTCodec(testSecret)
	require.NoError(t, err)
	other, err := NewJWTCodec("another-secret")
	require.NoError(t, err)

	token, err := other.Mint(core.Session{Class: core.SessionClassNFT, Principal: testPrincipal})
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestCodecsRequireSecret(t *testing.T) {
	_, err := NewOpaqueCodec("")
	assert.ErrorIs(t, err, core.ErrNotConfigured)
	_, err = NewJWTCodec("")
	assert.ErrorIs(t, err, core.ErrNotConfigured)
}
