package quotes

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
)

// KiteProvider fetches quotes through Zerodha Kite Connect. Useful when a
// Kite session is already available; requires a pre-generated access token.
type KiteProvider struct {
	client   *kiteconnect.Client
	exchange string
}

// NewKiteProvider creates a Kite quote provider.
func NewKiteProvider(apiKey, accessToken, exchange string) *KiteProvider {
	client := kiteconnect.New(apiKey)
	client.SetAccessToken(accessToken)
	if exchange == "" {
		exchange = "BSE"
	}
	return &KiteProvider{client: client, exchange: exchange}
}

// Name identifies the provider.
func (p *KiteProvider) Name() string { return "kite" }

// GetQuote fetches the current quote for a scrip code. Kite addresses BSE
// instruments as "BSE:<code>".
func (p *KiteProvider) GetQuote(ctx context.Context, scripCode string) (*models.Quote, error) {
	symbol := fmt.Sprintf("%s:%s", p.exchange, scripCode)

	quotes, err := p.client.GetQuote(symbol)
	if err != nil {
		return nil, apperrors.NewQuoteError(scripCode, p.Name(), err)
	}

	q, ok := quotes[symbol]
	if !ok || q.LastPrice <= 0 {
		return nil, apperrors.NewQuoteError(scripCode, p.Name(), apperrors.ErrQuoteUnavailable)
	}

	changePct := 0.0
	if q.OHLC.Close > 0 {
		changePct = q.NetChange / q.OHLC.Close * 100
	}

	return &models.Quote{
		ScripCode:     scripCode,
		CurrentPrice:  q.LastPrice,
		Open:          q.OHLC.Open,
		High:          q.OHLC.High,
		Low:           q.OHLC.Low,
		PrevClose:     q.OHLC.Close,
		Change:        q.NetChange,
		ChangePercent: changePct,
		Volume:        int64(q.Volume),
		UpdatedOn:     q.LastTradeTime.Time.Format(time.RFC3339),
	}, nil
}
