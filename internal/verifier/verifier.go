package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	xmBaseURL      = "https://mypartners.xm.com"
	vantageBaseURL = "https://openapi.vantagemarkets.com"

	lookupTimeout   = 10 * time.Second
	accountsTimeout = 15 * time.Second
	activityTimeout = 20 * time.Second

	vantageTimeLayout = "2006-01-02 15:04:05"
)

// Credentials carries the partner API secrets. Missing credentials make the
// corresponding broker unverifiable (Verify returns false).
type Credentials struct {
	XMToken       string
	VantageUserID int
	VantageSecret string
}

type Client struct {
	creds      Credentials
	httpClient *http.Client
	xmURL      string
	vantageURL string
	log        zerolog.Logger
}

func NewClient(creds Credentials, log zerolog.Logger) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{},
		xmURL:      xmBaseURL,
		vantageURL: vantageBaseURL,
		log:        log.With().Str("component", "verifier").Logger(),
	}
}

// Verify dispatches to the broker's partner API. Verification failure and
// verification-API failure are observably identical: both come back as
// false. Brokers without an API are never verifiable here; they go through
// admin approval instead.
func (c *Client) Verify(ctx context.Context, broker, clientID string) bool {
	switch broker {
	case "XM":
		return c.verifyXM(ctx, clientID)
	case "Vantage":
		return c.verifyVantage(ctx, clientID)
	default:
		return false
	}
}

func (c *Client) verifyXM(ctx context.Context, clientID string) bool {
	if c.creds.XMToken == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/traders/%s", c.xmURL, clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.XMToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("XM lookup failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

type vantageResponse struct {
	Code int `json:"code"`
	Data []struct {
		Account       json.Number `json:"account"`
		LastTradeTime string      `json:"last Trade Time"`
	} `json:"data"`
}

func (c *Client) verifyVantage(ctx context.Context, clientID string) bool {
	if c.creds.VantageUserID == 0 || c.creds.VantageSecret == "" {
		return false
	}

	now := time.Now()
	payload := map[string]interface{}{
		"userId":    c.creds.VantageUserID,
		"secret":    c.creds.VantageSecret,
		"startTime": now.AddDate(-1, 0, 0).Format(vantageTimeLayout),
		"endTime":   now.Format(vantageTimeLayout),
	}

	var parsed vantageResponse
	if !c.postVantage(ctx, "/api/ibData/accountData", payload, accountsTimeout, &parsed) {
		return false
	}
	if parsed.Code != 1 {
		return false
	}

	for _, acc := range parsed.Data {
		if acc.Account.String() == clientID {
			return true
		}
	}
	return false
}

// TradeActivity fetches the bulk commission report and maps client ids to
// their most recent trade dates. Rows with no or unparsable trade time are
// skipped; callers treat absence of a date as "no data", never "inactive".
func (c *Client) TradeActivity(ctx context.Context) map[string]time.Time {
	activity := make(map[string]time.Time)
	if c.creds.VantageUserID == 0 || c.creds.VantageSecret == "" {
		return activity
	}

	payload := map[string]interface{}{
		"userId": c.creds.VantageUserID,
		"secret": c.creds.VantageSecret,
	}

	var parsed vantageResponse
	if !c.postVantage(ctx, "/api/ibData/commissionData", payload, activityTimeout, &parsed) {
		return activity
	}
	if parsed.Code != 1 {
		return activity
	}

	for _, rec := range parsed.Data {
		if rec.LastTradeTime == "" {
			continue
		}
		t, err := time.Parse(vantageTimeLayout, rec.LastTradeTime)
		if err != nil {
			continue
		}
		activity[rec.Account.String()] = t
	}
	return activity
}

func (c *Client) postVantage(ctx context.Context, path string, payload interface{}, timeout time.Duration, out *vantageResponse) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.vantageURL+path, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("Vantage request failed")
		return false
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("Vantage response malformed")
		return false
	}
	return true
}
