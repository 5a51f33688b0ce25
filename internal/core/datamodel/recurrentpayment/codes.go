package recurrentpayment

// ErrorCode classifies why a recurrent payment try failed.
type ErrorCode string

const (
	ErrorCodeUnknown                       ErrorCode = "UNKNOWN"
	ErrorCodeCanNotRegisterMultiPayment    ErrorCode = "CAN_NOT_REGISTER_MULTI_PAYMENT"
	ErrorCodeAcquiringPaymentProceedFailed ErrorCode = "ACQUIRING_PAYMENT_PROCEED_FAILED"
	ErrorCodeLimitExceeded                 ErrorCode = "LIMIT_EXCEEDED"
	ErrorCodeContextNotFound               ErrorCode = "CONTEXT_NOT_FOUND"
	ErrorCodeContextDisabled               ErrorCode = "CONTEXT_DISABLED"
	ErrorCodeCardTokenNotValid             ErrorCode = "CARD_TOKEN_NOT_VALID"
	ErrorCodeNoReceiptsToProceed           ErrorCode = "NO_RECEIPTS_TO_PROCEED"
	ErrorCodeServiceConsumerNotFound       ErrorCode = "SERVICE_CONSUMER_NOT_FOUND"
)

func (c ErrorCode) String() string {
	return string(c)
}
