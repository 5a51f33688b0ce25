package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

const (
	CardTokenNotValidMessage = "CardToken is not valid"

	maxBodyBytes = 1 << 20
)

type Config struct {
	RequestTimeout time.Duration
}

// Client talks to the acquiring service. Every failure is reported as a
// result, never as an error.
type Client struct {
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		requestTimeout: timeout,
		logger:         logger,
	}
}

// CheckCardToken reports whether cardID is among the payer's stored card tokens.
func (c *Client) CheckCardToken(ctx context.Context, getCardTokensURL, cardID string) bool {
	log := c.logger

	status, body, err := c.get(ctx, getCardTokensURL)
	if err != nil {
		log.Warn("card tokens request failed", "error", err)
		return false
	}
	if status != http.StatusOK {
		log.Warn("card tokens request returned non 200", "status_code", status)
		return false
	}

	var resp paymentgatewaytypes.CardTokensResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Warn("malformed card tokens response", "error", err)
		return false
	}

	for _, token := range resp.CardTokens {
		if token.ID == cardID {
			return true
		}
	}
	return false
}

// ProceedPayment charges cardID through the direct payment URL.
func (c *Client) ProceedPayment(ctx context.Context, directPaymentURL, cardID string) paymentgatewaytypes.ProceedResult {
	log := c.logger

	target, err := url.Parse(directPaymentURL)
	if err != nil {
		return proceedFailed(fmt.Sprintf("invalid direct payment url: %v", err))
	}
	q := target.Query()
	q.Set("cardTokenId", cardID)
	q.Set("successUrl", "")
	q.Set("failureUrl", "")
	target.RawQuery = q.Encode()

	status, body, err := c.get(ctx, target.String())
	if err != nil {
		log.Error("direct payment request failed", "error", err)
		return proceedFailed(err.Error())
	}

	resp, err := paymentgatewaytypes.DecodeDirectPaymentResponse(status == http.StatusOK, body)
	if err != nil {
		log.Error("malformed direct payment response", "status_code", status, "error", err)
		return proceedFailed(err.Error())
	}

	switch r := resp.(type) {
	case paymentgatewaytypes.DirectPaymentSuccess:
		if r.Completed() {
			log.Info("direct payment completed", "order_id", r.OrderID)
			return paymentgatewaytypes.ProceedResult{Paid: true}
		}
		log.Warn("direct payment redirected away from success page", "order_id", r.OrderID)
		return paymentgatewaytypes.ProceedResult{
			ErrorCode:    recurrentpayment.ErrorCodeCardTokenNotValid,
			ErrorMessage: CardTokenNotValidMessage,
		}
	case paymentgatewaytypes.DirectPaymentFailure:
		log.Warn("direct payment rejected", "status_code", status, "error", r.Error)
		return proceedFailed(r.Error)
	default:
		return proceedFailed(fmt.Sprintf("unexpected direct payment response %T", resp))
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func proceedFailed(message string) paymentgatewaytypes.ProceedResult {
	return paymentgatewaytypes.ProceedResult{
		ErrorCode:    recurrentpayment.ErrorCodeAcquiringPaymentProceedFailed,
		ErrorMessage: message,
	}
}
