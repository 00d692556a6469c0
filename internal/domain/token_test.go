package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthTokenResponse_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantToken EncryptedToken
		wantShape TokenShape
	}{
		{name: "data.token", body: `{"data":{"token":"a"}}`, wantToken: "a", wantShape: TokenShapeData},
		{name: "top-level", body: `{"token":"b"}`, wantToken: "b", wantShape: TokenShapeTopLevel},
		{name: "data wins", body: `{"token":"b","data":{"token":"a"}}`, wantToken: "a", wantShape: TokenShapeData},
		{name: "empty data falls back", body: `{"token":"b","data":{"token":""}}`, wantToken: "b", wantShape: TokenShapeTopLevel},
		{name: "none", body: `{"status":"ok"}`, wantToken: "", wantShape: TokenShapeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp AuthTokenResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			token, shape := resp.Resolve()
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantShape, shape)
		})
	}
}

func TestUpstreamStatusError(t *testing.T) {
	var err error = &UpstreamStatusError{StatusCode: 503}

	assert.True(t, errors.Is(err, ErrUpstreamStatus))
	assert.Equal(t, "aplos auth failed: 503", err.Error())
}
