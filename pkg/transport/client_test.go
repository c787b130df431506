package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestClient_PostJSON(t *testing.T) {
	var (
		gotContentType string
		gotHeader      string
		gotBody        map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotHeader = r.Header.Get("x-test")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(NewHTTPClient(nil, 5*time.Second), zaptest.NewLogger(t))
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"x-test": "value"}, map[string]int{"slot": 7})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, ContentTypeJSON, gotContentType)
	assert.Equal(t, "value", gotHeader)
	assert.Equal(t, float64(7), gotBody["slot"])
}

func TestClient_Non2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-32602,"message":"slot in the past"}`))
	}))
	defer srv.Close()

	c := NewClient(NewHTTPClient(nil, 5*time.Second), zaptest.NewLogger(t))
	resp, err := c.PostJSON(context.Background(), srv.URL, nil, struct{}{})
	require.Nil(t, resp)
	require.Error(t, err)
	require.True(t, errors.Is(err, preconfErrors.ErrNetwork))

	var classified *preconfErrors.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, `{"code":-32602,"message":"slot in the past"}`, classified.Body)
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(NewHTTPClient(nil, time.Second), zaptest.NewLogger(t))
	_, err := c.GetJSON(context.Background(), url)
	require.Error(t, err)
	require.True(t, errors.Is(err, preconfErrors.ErrNetwork))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(NewHTTPClient(nil, 50*time.Millisecond), zaptest.NewLogger(t))
	_, err := c.GetJSON(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, preconfErrors.ErrNetwork))
}

func TestClient_ResponseSizeCap(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at cap", maxResponseBytes, false},
		{"over cap", maxResponseBytes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("a", tt.size)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(NewHTTPClient(nil, 5*time.Second), zaptest.NewLogger(t))
			resp, err := c.GetJSON(context.Background(), srv.URL)
			if tt.wantErr {
				require.Nil(t, resp)
				require.Error(t, err)
				assert.True(t, errors.Is(err, preconfErrors.ErrNetwork))
				assert.Contains(t, err.Error(), "exceeds")
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Body, tt.size)
		})
	}
}
