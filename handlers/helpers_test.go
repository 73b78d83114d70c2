package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/court-flow/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}

	cases := []struct {
		body    string
		wantErr string
	}{
		{body: `{"name":"Ann"}`},
		{body: ``, wantErr: "body must not be empty"},
		{body: `{"name":`, wantErr: "badly-formed JSON"},
		{body: `{"name":1}`, wantErr: `incorrect JSON type for field "name"`},
		{body: `{"nick":"Ann"}`, wantErr: `unknown key "nick"`},
		{body: `{"name":"Ann"}{"name":"Ben"}`, wantErr: "single JSON value"},
		{body: `[]`, wantErr: "incorrect JSON type"},
		{body: `{"name":"` + strings.Repeat("a", maxRequestBytes) + `"}`, wantErr: "must not be larger than"},
		{body: "{\"name\":\"Ann\"}\n"},
	}

	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		w := httptest.NewRecorder()

		var dst input
		err := readJSON(w, r, &dst)
		if tc.wantErr == "" {
			require.NoError(t, err)
			assert.Equal(t, "Ann", dst.Name)
			continue
		}
		require.Error(t, err, tc.body)
		assert.Contains(t, err.Error(), tc.wantErr)
	}
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	persistence := fmt.Errorf("%w: %w", services.ErrPersistenceFailed, errors.New("x"))
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrDisplayNameRequired, http.StatusBadRequest},
		{services.ErrInvalidSource, http.StatusBadRequest},
		{services.ErrConfirmationRequired, http.StatusBadRequest},
		{services.ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{persistence, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		mapServiceErrorToHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/board", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker(nil)
	assert.True(t, anyOrigin(req("https://evil.example")))

	wildcard := originChecker([]string{"*"})
	assert.True(t, wildcard(req("https://evil.example")))

	strict := originChecker([]string{"https://club.example"})
	assert.True(t, strict(req("https://club.example")))
	assert.True(t, strict(req("")))
	assert.False(t, strict(req("https://evil.example")))
}
