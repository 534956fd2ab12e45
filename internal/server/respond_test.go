package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"comproposito/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBodyMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "ana@example.pt"))
	require.NoError(t, mw.WriteField("password", "s3cret"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/login", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	var input loginRequest
	require.NoError(t, decodeBody(r, &input))
	assert.Equal(t, "ana@example.pt", input.Email)
	assert.Equal(t, "s3cret", input.Password)
}

func TestDecodeBodyURLEncoded(t *testing.T) {
	form := url.Values{"email": {"ana@example.pt"}, "password": {"s3cret"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var input loginRequest
	require.NoError(t, decodeBody(r, &input))
	assert.Equal(t, "ana@example.pt", input.Email)
	assert.Equal(t, "s3cret", input.Password)
}

func TestDecodeBodyMalformedMultipart(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("not a multipart body"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=missing")

	var input loginRequest
	err := decodeBody(r, &input)
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}
