package paymentgateway

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

// SuccessURLMarker is what the acquiring service redirects to once a
// card-bound payment has been taken.
const SuccessURLMarker = "/api/payment/success"

type CardToken struct {
	ID string `json:"id"`
}

type CardTokensResponse struct {
	CardTokens []CardToken `json:"cardTokens"`
}

// DirectPaymentResponse is either a DirectPaymentSuccess or a DirectPaymentFailure.
type DirectPaymentResponse interface {
	isDirectPaymentResponse()
}

type DirectPaymentSuccess struct {
	OrderID string
	URL     string
}

type DirectPaymentFailure struct {
	Error string
}

func (DirectPaymentSuccess) isDirectPaymentResponse() {}
func (DirectPaymentFailure) isDirectPaymentResponse() {}

// Completed reports whether the redirect points at the success page.
func (s DirectPaymentSuccess) Completed() bool {
	return strings.Contains(strings.ToLower(s.URL), SuccessURLMarker)
}

type directPaymentBody struct {
	OrderID *string `json:"orderId"`
	URL     string  `json:"url"`
	Error   any     `json:"error"`
	Message string  `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (b directPaymentBody) failureText() string {
	if msg := errorText(b.Error); msg != "" {
		return msg
	}
	if len(b.Errors) > 0 && b.Errors[0].Message != "" {
		return b.Errors[0].Message
	}
	return b.Message
}

// DecodeDirectPaymentResponse validates the body at the boundary. A body
// without orderId is a failure carrying its error field.
func DecodeDirectPaymentResponse(statusOK bool, body []byte) (DirectPaymentResponse, error) {
	var raw directPaymentBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
	}
	if !statusOK || raw.OrderID == nil || *raw.OrderID == "" {
		return DirectPaymentFailure{Error: raw.failureText()}, nil
	}
	return DirectPaymentSuccess{OrderID: *raw.OrderID, URL: raw.URL}, nil
}

func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

type ProceedResult struct {
	Paid         bool
	ErrorCode    recurrentpayment.ErrorCode
	ErrorMessage string
}

// RegisterRequest is what the registrar submits for one attempt.
type RegisterRequest struct {
	ServiceConsumerID string
	CardID            string
	Receipts          []billing.Receipt
}

func (r *RegisterRequest) Validate() error {
	if r.ServiceConsumerID == "" {
		return errors.New("service_consumer_id is required")
	}
	if len(r.Receipts) == 0 {
		return errors.New("at least one receipt is required")
	}
	return nil
}

type Registration struct {
	MultiPaymentID   string
	DirectPaymentURL string
	GetCardTokensURL string
}
