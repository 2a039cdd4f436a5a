package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SendText(t *testing.T) {
	t.Run("posts the text payload", func(t *testing.T) {
		var got textPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := NewClient(srv.URL, time.Second).SendText(context.Background(), "미완료 3건")
		require.NoError(t, err)
		assert.Equal(t, "미완료 3건", got.Text)
	})

	t.Run("surfaces receiver errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
		}))
		defer srv.Close()

		err := NewClient(srv.URL, time.Second).SendText(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code=403")
		assert.Contains(t, err.Error(), "invalid_token")
	})

	t.Run("fails when the receiver is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		err := NewClient(url, time.Second).SendText(context.Background(), "x")
		assert.Error(t, err)
	})
}
