package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(creds Credentials, xmURL, vantageURL string) *Client {
	c := NewClient(creds, zerolog.Nop())
	if xmURL != "" {
		c.xmURL = xmURL
	}
	if vantageURL != "" {
		c.vantageURL = vantageURL
	}
	return c
}

func TestVerifyXM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xm-token", r.Header.Get("Authorization"))
		if r.URL.Path == "/api/traders/123456" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(Credentials{XMToken: "xm-token"}, srv.URL, "")

	assert.True(t, c.Verify(context.Background(), "XM", "123456"))
	assert.False(t, c.Verify(context.Background(), "XM", "999999"))
}

func TestVerifyXMWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should leave the process without credentials")
	}))
	defer srv.Close()

	c := newTestClient(Credentials{}, srv.URL, "")
	assert.False(t, c.Verify(context.Background(), "XM", "123456"))
}

func TestVerifyVantageScansAccountList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ibData/accountData", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 42, payload["userId"])
		assert.Equal(t, "vantage-secret", payload["secret"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 1,
			"data": []map[string]interface{}{
				{"account": 111111},
				{"account": "222222"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(Credentials{VantageUserID: 42, VantageSecret: "vantage-secret"}, "", srv.URL)

	// Accounts arrive as numbers or strings; both must match.
	assert.True(t, c.Verify(context.Background(), "Vantage", "111111"))
	assert.True(t, c.Verify(context.Background(), "Vantage", "222222"))
	assert.False(t, c.Verify(context.Background(), "Vantage", "333333"))
}

func TestVerifyVantageErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": nil})
	}))
	defer srv.Close()

	c := newTestClient(Credentials{VantageUserID: 42, VantageSecret: "s"}, "", srv.URL)
	assert.False(t, c.Verify(context.Background(), "Vantage", "111111"))
}

func TestVerifyUnknownBroker(t *testing.T) {
	c := newTestClient(Credentials{XMToken: "x", VantageUserID: 1, VantageSecret: "s"}, "", "")
	assert.False(t, c.Verify(context.Background(), "Exness", "123456"))
}

func TestTradeActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ibData/commissionData", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 1,
			"data": []map[string]interface{}{
				{"account": 111111, "last Trade Time": "2025-06-20 09:30:00"},
				{"account": 222222, "last Trade Time": ""},
				{"account": 333333, "last Trade Time": "not-a-date"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(Credentials{VantageUserID: 42, VantageSecret: "s"}, "", srv.URL)

	activity := c.TradeActivity(context.Background())
	require.Len(t, activity, 1, "empty and unparsable trade times are skipped")
	assert.Equal(t, time.Date(2025, 6, 20, 9, 30, 0, 0, time.UTC), activity["111111"])
}

func TestTradeActivityWithoutCredentials(t *testing.T) {
	c := newTestClient(Credentials{}, "", "")
	assert.Empty(t, c.TradeActivity(context.Background()))
}
