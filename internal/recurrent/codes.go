package recurrent

import (
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
)

type ErrorCode = recurrentpayment.ErrorCode

const (
	ErrorCodeUnknown                       = recurrentpayment.ErrorCodeUnknown
	ErrorCodeCanNotRegisterMultiPayment    = recurrentpayment.ErrorCodeCanNotRegisterMultiPayment
	ErrorCodeAcquiringPaymentProceedFailed = recurrentpayment.ErrorCodeAcquiringPaymentProceedFailed
	ErrorCodeLimitExceeded                 = recurrentpayment.ErrorCodeLimitExceeded
	ErrorCodeContextNotFound               = recurrentpayment.ErrorCodeContextNotFound
	ErrorCodeContextDisabled               = recurrentpayment.ErrorCodeContextDisabled
	ErrorCodeCardTokenNotValid             = recurrentpayment.ErrorCodeCardTokenNotValid
	ErrorCodeNoReceiptsToProceed           = recurrentpayment.ErrorCodeNoReceiptsToProceed
	ErrorCodeServiceConsumerNotFound       = recurrentpayment.ErrorCodeServiceConsumerNotFound
)

var retryable = map[ErrorCode]bool{
	ErrorCodeUnknown:                       true,
	ErrorCodeCanNotRegisterMultiPayment:    true,
	ErrorCodeAcquiringPaymentProceedFailed: true,
}

// IsRetryable reports whether a failure with code may be tried again.
// Unlisted codes are terminal.
func IsRetryable(code ErrorCode) bool {
	return retryable[code]
}
