// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest},
		{"wrapped not found", errors.Wrap(NotFound(errors.New("gone")), "lookup"), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.NoError(t, WriteJSON(rec, map[string]any{"epoch": 3}))
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"epoch":3}`, rec.Body.String())
}

func TestAddressVar(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{
		"address": "0x0000000000000000000000000000000000002013",
		"bad":     "0x12",
	})
	addr, err := AddressVar(req, "address")
	assert.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000002013", addr.String())

	_, err = AddressVar(req, "bad")
	var he *httpError
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.status)
}
