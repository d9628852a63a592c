package types

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_Valid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 40.9142, Lng: -73.1232}.Valid())
	assert.True(t, Coordinate{Lat: 90, Lng: 180}.Valid())
	assert.True(t, Coordinate{Lat: -90, Lng: -180}.Valid())
	assert.False(t, Coordinate{Lat: 90.1, Lng: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lng: -180.1}.Valid())
}

func TestCoordinate_Key_ExactIdentity(t *testing.T) {
	a := Coordinate{Lat: 40.914235, Lng: -73.123201}
	b := Coordinate{Lat: 40.914235, Lng: -73.123201}
	c := Coordinate{Lat: 40.914236, Lng: -73.123201}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "40.914235,-73.123201", a.Key())
}

func TestCoordinate_Key_TrimsTrailingZeros(t *testing.T) {
	// %v formatting, so stored floats render without padding.
	assert.Equal(t, "40.9142,-73.1232", Coordinate{Lat: 40.9142, Lng: -73.1232}.Key())
	assert.Equal(t, "40,-73", Coordinate{Lat: 40, Lng: -73}.Key())
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidCoord, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeUpstreamDirections, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusBadGateway},
		{ErrCodeConfigMissingCredential, http.StatusInternalServerError},
		{ErrCodeInternalStore, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.code.HTTPStatus())
		})
	}
}

func TestAppError_UnwrapChain(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "provider unreachable", inner)

	assert.ErrorIs(t, appErr, inner)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus())
	assert.Contains(t, appErr.Error(), string(ErrCodeUpstreamUnavailable))
}

func TestSecretString_Redaction(t *testing.T) {
	secret := SecretString("super-secret-api-key")

	assert.NotContains(t, secret.String(), "super-secret")
	assert.Equal(t, "super-secret-api-key", secret.Unmask())

	out, err := json.Marshal(struct {
		Key SecretString `json:"key"`
	}{Key: secret})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "super-secret")
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-99")
	assert.Equal(t, "req-99", GetRequestID(ctx))
}
