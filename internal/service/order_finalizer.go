package service

import (
	"context"
	"errors"
	"time"

	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/metrics"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinalizeResult 落单结果
type FinalizeResult struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order,omitempty"`
	// Created 本次调用创建了订单；重复调用返回已有订单时为 false
	Created bool `json:"created"`
}

// OrderFinalizer 支付完成后生成订单，每个支付单只落单一次
type OrderFinalizer struct {
	db          *gorm.DB
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	usageRepo   repository.CouponUsageRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewOrderFinalizer 创建落单服务
func NewOrderFinalizer(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	usageRepo repository.CouponUsageRepository,
	productRepo repository.ProductRepository,
) *OrderFinalizer {
	return &OrderFinalizer{
		db:          db,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		usageRepo:   usageRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

// FinalizePaid 网关确认收款后落单。
// 先以 pending→paid 抢占支付单，抢到的调用方负责建单；
// 建单失败时支付单转为 needs_support 并返回 *PostPaymentError。
func (f *OrderFinalizer) FinalizePaid(ctx context.Context, paymentNo string) (*FinalizeResult, error) {
	payment, err := f.load(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment.Method != constants.PaymentMethodQPay {
		return nil, ErrPaymentMethodInvalid
	}

	now := f.now()
	claimed, err := f.paymentRepo.TransitionStatus(payment.ID,
		[]string{constants.PaymentStatusPending},
		constants.PaymentStatusPaid,
		map[string]interface{}{"paid_at": now},
	)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return f.settled(payment.PaymentNo)
	}
	payment.Status = constants.PaymentStatusPaid
	payment.PaidAt = &now

	order, err := f.persist(payment, constants.PaymentStatusPaid, constants.OrderStatusPaid)
	if err != nil {
		return nil, f.markNeedsSupport(ctx, payment, err)
	}
	metrics.FinalizationsTotal.WithLabelValues(payment.Method, "created").Inc()
	logger.Infow("order_finalized",
		"payment_no", payment.PaymentNo,
		"order_no", order.OrderNo,
		"amount", payment.Amount.String(),
	)
	return &FinalizeResult{Payment: payment, Order: order, Created: true}, nil
}

// ConfirmTransfer 用户声明已完成银行转账，订单以 awaiting_transfer 状态创建
func (f *OrderFinalizer) ConfirmTransfer(ctx context.Context, session *Session, paymentNo string) (*FinalizeResult, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	payment, err := f.load(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment.UserID != session.UserID() {
		return nil, ErrPaymentNotFound
	}
	if payment.Method != constants.PaymentMethodBankTransfer {
		return nil, ErrPaymentMethodInvalid
	}
	if payment.Status != constants.PaymentStatusPending {
		return f.settled(payment.PaymentNo)
	}

	order, err := f.persist(payment, constants.PaymentStatusPending, constants.OrderStatusAwaitingTransfer)
	if errors.Is(err, errPaymentNotClaimed) {
		return f.settled(payment.PaymentNo)
	}
	if err != nil {
		metrics.FinalizationsTotal.WithLabelValues(payment.Method, "rejected").Inc()
		return nil, err
	}
	metrics.FinalizationsTotal.WithLabelValues(payment.Method, "created").Inc()
	logger.Infow("order_transfer_confirmed",
		"payment_no", payment.PaymentNo,
		"order_no", order.OrderNo,
	)
	return &FinalizeResult{Payment: payment, Order: order, Created: true}, nil
}

var errPaymentNotClaimed = errors.New("payment not claimed")

// persist 单事务内：抢占支付单、建单、记录优惠码使用、清空购物车、回写订单ID
func (f *OrderFinalizer) persist(payment *models.Payment, fromStatus, orderStatus string) (*models.Order, error) {
	draft, err := decodePaymentDraft(payment.Draft)
	if err != nil {
		return nil, err
	}
	now := f.now()
	order, items := buildOrder(payment, draft, orderStatus, now)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := f.paymentRepo.WithTx(tx)
		claimed, err := paymentRepo.TransitionStatus(payment.ID, []string{fromStatus}, constants.PaymentStatusFinalized, nil)
		if err != nil {
			return err
		}
		if !claimed {
			return errPaymentNotClaimed
		}
		if err := f.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return err
		}
		if draft.CouponID != nil {
			usage := &models.CouponUsage{
				CouponID:       *draft.CouponID,
				UserID:         payment.UserID,
				OrderID:        &order.ID,
				DiscountAmount: models.NewMoneyFromDecimal(draft.Quote.CouponDiscount),
			}
			if err := f.usageRepo.WithTx(tx).Create(usage); err != nil {
				if repository.IsUniqueViolation(err) {
					return ErrCouponAlreadyUsed
				}
				return err
			}
		}
		if err := f.cartRepo.WithTx(tx).ClearByUser(payment.UserID); err != nil {
			return err
		}
		return tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Update("order_id", order.ID).Error
	})
	if err != nil {
		return nil, err
	}

	payment.Status = constants.PaymentStatusFinalized
	payment.OrderID = &order.ID
	f.decrementStock(order)
	return order, nil
}

// markNeedsSupport 已收款但无法落单，转人工处理
func (f *OrderFinalizer) markNeedsSupport(ctx context.Context, payment *models.Payment, cause error) error {
	reason := cause.Error()
	if len(reason) > 250 {
		reason = reason[:250]
	}
	if _, err := f.paymentRepo.TransitionStatus(payment.ID,
		[]string{constants.PaymentStatusPaid},
		constants.PaymentStatusNeedsSupport,
		map[string]interface{}{"failure_reason": reason},
	); err != nil {
		logger.Errorw("payment_mark_needs_support_failed", "payment_no", payment.PaymentNo, "error", err)
	}
	payment.Status = constants.PaymentStatusNeedsSupport
	payment.FailureReason = reason
	metrics.FinalizationsTotal.WithLabelValues(payment.Method, "needs_support").Inc()
	logger.Errorw("order_persist_after_payment_failed",
		"payment_no", payment.PaymentNo,
		"user_id", payment.UserID,
		"amount", payment.Amount.String(),
		"error", cause,
	)
	return &PostPaymentError{PaymentNo: payment.PaymentNo, Cause: cause}
}

// stalePaidAfter 已收款但超过该时长仍未落单，视为落单进程中断
const stalePaidAfter = 10 * time.Minute

var errPaidNotFinalized = errors.New("order not persisted after payment")

// RecoverStalePaid 将中断在 paid 状态的支付单转为 needs_support，交由人工处理
func (f *OrderFinalizer) RecoverStalePaid(ctx context.Context, limit int) (int, error) {
	payments, err := f.paymentRepo.ListStalePaid(f.now().Add(-stalePaidAfter), limit)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for i := range payments {
		if err := ctx.Err(); err != nil {
			return recovered, err
		}
		payment := &payments[i]
		won, err := f.paymentRepo.TransitionStatus(payment.ID,
			[]string{constants.PaymentStatusPaid},
			constants.PaymentStatusNeedsSupport,
			map[string]interface{}{"failure_reason": errPaidNotFinalized.Error()},
		)
		if err != nil {
			logger.Errorw("payment_recover_stale_paid_failed", "payment_no", payment.PaymentNo, "error", err)
			continue
		}
		if !won {
			continue
		}
		metrics.FinalizationsTotal.WithLabelValues(payment.Method, "needs_support").Inc()
		logger.Errorw("payment_stale_paid_needs_support",
			"payment_no", payment.PaymentNo,
			"user_id", payment.UserID,
			"amount", payment.Amount.String(),
			"paid_at", payment.PaidAt,
		)
		recovered++
	}
	return recovered, nil
}

// settled 支付单已被其他路径处理，返回当前结果
func (f *OrderFinalizer) settled(paymentNo string) (*FinalizeResult, error) {
	payment, err := f.load(paymentNo)
	if err != nil {
		return nil, err
	}
	result := &FinalizeResult{Payment: payment}
	switch payment.Status {
	case constants.PaymentStatusFinalized:
		order, err := f.orderRepo.GetByPaymentNo(payment.PaymentNo)
		if err != nil {
			return nil, err
		}
		result.Order = order
		metrics.FinalizationsTotal.WithLabelValues(payment.Method, "duplicate").Inc()
		return result, nil
	case constants.PaymentStatusPaid:
		// 另一路径正在落单
		return result, nil
	case constants.PaymentStatusNeedsSupport:
		return nil, &PostPaymentError{PaymentNo: payment.PaymentNo, Cause: errors.New(payment.FailureReason)}
	default:
		return nil, ErrPaymentClosed
	}
}

func (f *OrderFinalizer) load(paymentNo string) (*models.Payment, error) {
	payment, err := f.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// decrementStock 扣减库存，不足时仅记录告警
func (f *OrderFinalizer) decrementStock(order *models.Order) {
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			continue
		}
		product, err := f.productRepo.GetByID(item.ProductID)
		if err != nil || product == nil || product.Stock < 0 {
			continue
		}
		affected, err := f.productRepo.DecrementStock(item.ProductID, item.Quantity)
		if err != nil || affected == 0 {
			logger.Warnw("order_stock_decrement_skipped",
				"order_no", order.OrderNo,
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
}

func buildOrder(payment *models.Payment, draft *PaymentDraft, status string, now time.Time) (*models.Order, []models.OrderItem) {
	form := draft.Form
	order := &models.Order{
		OrderNo:        generateOrderNo(now),
		UserID:         payment.UserID,
		Status:         status,
		Currency:       payment.Currency,
		Subtotal:       models.NewMoneyFromDecimal(draft.Quote.Subtotal),
		ShippingFee:    models.NewMoneyFromDecimal(draft.Quote.Shipping),
		DiscountAmount: models.NewMoneyFromDecimal(draft.Quote.CouponDiscount),
		TotalAmount:    models.NewMoneyFromDecimal(draft.Quote.Total),
		CouponID:       draft.CouponID,
		DeliveryMethod: form.DeliveryMethod,
		InvoiceType:    form.InvoiceType,
		ContactName:    form.Name,
		ContactEmail:   form.Email,
		ContactPhone:   form.Phone,
		RegisterNumber: form.RegisterNumber,
		City:           form.City,
		District:       form.District,
		Khoroo:         form.Khoroo,
		Address:        form.Address,
		PaymentMethod:  payment.Method,
		PaymentNo:      payment.PaymentNo,
		PaidAt:         payment.PaidAt,
	}

	items := make([]models.OrderItem, 0, len(draft.Items)+1)
	for _, line := range draft.Items {
		total := decimal.Zero
		if !line.IsGift {
			total = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		items = append(items, models.OrderItem{
			ProductID:  line.ProductID,
			Title:      line.Name,
			UnitPrice:  models.NewMoneyFromDecimal(line.Price),
			Quantity:   line.Quantity,
			Size:       line.Size,
			Color:      line.Color,
			IsGift:     line.IsGift,
			TotalPrice: models.NewMoneyFromDecimal(total),
		})
	}
	if draft.Gift != nil {
		items = append(items, models.OrderItem{
			ProductID: draft.Gift.ProductID,
			Title:     draft.Gift.Name,
			Quantity:  1,
			IsGift:    true,
		})
	}
	return order, items
}
