package response

const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	// CodePaymentNeedsSupport 已扣款但订单未落库，需人工处理
	CodePaymentNeedsSupport = 460
	CodeInternal            = 500
	CodeGateway             = 502
)
