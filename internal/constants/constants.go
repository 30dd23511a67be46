package constants

// 订单状态常量
const (
	OrderStatusAwaitingTransfer = "awaiting_transfer"
	OrderStatusPaid             = "paid"
	OrderStatusProcessing       = "processing"
	OrderStatusShipped          = "shipped"
	OrderStatusCompleted        = "completed"
	OrderStatusCanceled         = "canceled"
)

// 支付状态常量
const (
	PaymentStatusPending      = "pending"
	PaymentStatusPaid         = "paid"
	PaymentStatusFinalized    = "finalized"
	PaymentStatusFailed       = "failed"
	PaymentStatusCanceled     = "canceled"
	PaymentStatusExpired      = "expired"
	PaymentStatusNeedsSupport = "needs_support"
)

// 支付方式常量
const (
	PaymentMethodQPay         = "qpay"
	PaymentMethodBankTransfer = "bank_transfer"
)

// 配送方式常量
const (
	DeliveryMethodDelivery = "delivery"
	DeliveryMethodPickup   = "pickup"
	DeliveryMethodInvoice  = "invoice"
)

// 发票类型常量
const (
	InvoiceTypeIndividual   = "individual"
	InvoiceTypeOrganization = "organization"
	InvoiceTypeTaxpayer     = "taxpayer"
)

// 赠品门槛类型常量
const (
	GiftThresholdAmount = "amount"
	GiftThresholdCount  = "count"
)

// 异步队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskPaymentTimeoutCancel = "payment:timeout_cancel"
	TaskPaymentWatch         = "payment:watch"
)

// 币种
const (
	CurrencyMNT = "MNT"
)
