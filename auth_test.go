package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedTokenBody = `{"channel":"OSS_FULL","scopes":["*"]}`

func newTokenServer(t *testing.T, status int, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, dogeCloudTokenAPI, r.URL.Path)
		assert.Equal(t, expectedTokenBody, string(body))

		mac := hmac.New(sha1.New, []byte("mock-sk"))
		mac.Write([]byte(dogeCloudTokenAPI + "\n" + expectedTokenBody))
		assert.Equal(t, "TOKEN mock-ak:"+hex.EncodeToString(mac.Sum(nil)), r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDogeCloudRetrieve(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{
		"code": 200,
		"msg": "OK",
		"data": {
			"Credentials": {
				"accessKeyId": "tmp-ak",
				"secretAccessKey": "tmp-sk",
				"sessionToken": "tmp-token"
			},
			"ExpiredAt": 1767225600
		}
	}`)
	provider := NewDogeCloudCredentials("mock-ak", "mock-sk", server.URL)

	creds, err := provider.Retrieve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tmp-ak", creds.AccessKeyID)
	assert.Equal(t, "tmp-sk", creds.SecretAccessKey)
	assert.Equal(t, "tmp-token", creds.SessionToken)
	assert.True(t, creds.CanExpire)
	assert.True(t, creds.Expires.Equal(time.Unix(1767225600, 0)))
	assert.Equal(t, "DogeCloudCredentials", creds.Source)
}

func TestDogeCloudRetrieveAPIError(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{"code": 403, "msg": "ERROR_SIGNATURE"}`)
	provider := NewDogeCloudCredentials("mock-ak", "mock-sk", server.URL)

	_, err := provider.Retrieve(context.Background())

	require.Error(t, err)
	assert.Equal(t, "API Error: ERROR_SIGNATURE", err.Error())
}

func TestDogeCloudRetrieveHTTPError(t *testing.T) {
	server := newTokenServer(t, http.StatusInternalServerError, `upstream down`)
	provider := NewDogeCloudCredentials("mock-ak", "mock-sk", server.URL)

	_, err := provider.Retrieve(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
}

func TestDogeCloudRetrieveEmptyCredentials(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{"code": 200, "msg": "OK", "data": {"ExpiredAt": 1767225600}}`)
	provider := NewDogeCloudCredentials("mock-ak", "mock-sk", server.URL)

	_, err := provider.Retrieve(context.Background())

	assert.ErrorIs(t, err, errEmptyCredentials)
}
