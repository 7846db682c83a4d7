package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/pkg/utils"
)

const bseQuoteURL = "https://api.bseindia.com/BseIndiaAPI/api/getScripHeaderData/w"

// BSEProvider fetches quotes from BSE's public scrip header endpoint, the
// same data source the exchange's own quote pages use. The API returns all
// numeric fields as strings.
type BSEProvider struct {
	client  *http.Client
	retry   utils.RetryConfig
	baseURL string
}

// NewBSEProvider creates a BSE quote provider.
func NewBSEProvider(timeout time.Duration, maxRetries int, retryDelay time.Duration) *BSEProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retry := utils.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	if retryDelay > 0 {
		retry.InitialDelay = retryDelay
	}
	return &BSEProvider{
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
		baseURL: bseQuoteURL,
	}
}

// Name identifies the provider.
func (p *BSEProvider) Name() string { return "bse" }

type bseHeaderResponse struct {
	Header struct {
		CompanyName string `json:"FullN"`
		Open        string `json:"Open"`
		High        string `json:"High"`
		Low         string `json:"Low"`
		PrevClose   string `json:"PrevClose"`
		Volume      string `json:"Vol"`
		UpdatedOn   string `json:"Upd_time"`
	} `json:"Header"`
	CurrRate struct {
		LTP           string `json:"LTP"`
		Change        string `json:"Chg"`
		ChangePercent string `json:"PcChg"`
	} `json:"CurrRate"`
}

// GetQuote fetches the current quote for a scrip code, retrying transient
// failures with backoff.
func (p *BSEProvider) GetQuote(ctx context.Context, scripCode string) (*models.Quote, error) {
	quote, err := utils.RetryWithResult(ctx, p.retry, func() (*models.Quote, error) {
		return p.fetch(ctx, scripCode)
	})
	if err != nil {
		return nil, apperrors.NewQuoteError(scripCode, p.Name(), err)
	}
	return quote, nil
}

func (p *BSEProvider) fetch(ctx context.Context, scripCode string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("Debug", "ZYX")
	params.Set("scripcode", scripCode)
	params.Set("flag", "0")
	params.Set("fromdate", "")
	params.Set("todate", "")
	params.Set("seriesid", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	// The API rejects requests without a browser-ish referer.
	req.Header.Set("Referer", "https://www.bseindia.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body bseHeaderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	price := parseBSENumber(body.CurrRate.LTP)
	if price <= 0 {
		return nil, apperrors.ErrQuoteUnavailable
	}

	return &models.Quote{
		ScripCode:     scripCode,
		CompanyName:   body.Header.CompanyName,
		CurrentPrice:  price,
		Open:          parseBSENumber(body.Header.Open),
		High:          parseBSENumber(body.Header.High),
		Low:           parseBSENumber(body.Header.Low),
		PrevClose:     parseBSENumber(body.Header.PrevClose),
		Change:        parseBSENumber(body.CurrRate.Change),
		ChangePercent: parseBSENumber(body.CurrRate.ChangePercent),
		Volume:        int64(parseBSENumber(body.Header.Volume)),
		UpdatedOn:     body.Header.UpdatedOn,
	}, nil
}

// parseBSENumber parses the API's string-typed numerics, tolerating
// thousands separators and blanks.
func parseBSENumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
