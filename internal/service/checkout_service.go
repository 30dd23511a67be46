package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/config"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/payment/qpay"
	"github.com/tavan-shop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CheckoutService 结账编排：报价 → 选择支付方式 → 创建发票 → 查询/轮询 → 落单
type CheckoutService struct {
	cfg         config.CheckoutConfig
	qpayCfg     config.QPayConfig
	cart        *CartService
	coupons     *CouponService
	gifts       *GiftSettingService
	addressRepo repository.AddressRepository
	productRepo repository.ProductRepository
	paymentRepo repository.PaymentRepository
	gateway     PaymentGateway
	finalizer   *OrderFinalizer
	watcher     *PaymentWatcher
	tasks       TaskScheduler
	drafts      *checkout.DraftBuilder
	now         func() time.Time
}

// CheckoutDeps 结账服务依赖
type CheckoutDeps struct {
	Config      config.CheckoutConfig
	QPay        config.QPayConfig
	Cart        *CartService
	Coupons     *CouponService
	Gifts       *GiftSettingService
	AddressRepo repository.AddressRepository
	ProductRepo repository.ProductRepository
	PaymentRepo repository.PaymentRepository
	Gateway     PaymentGateway
	Finalizer   *OrderFinalizer
	Watcher     *PaymentWatcher
	Tasks       TaskScheduler
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	return &CheckoutService{
		cfg:         deps.Config,
		qpayCfg:     deps.QPay,
		cart:        deps.Cart,
		coupons:     deps.Coupons,
		gifts:       deps.Gifts,
		addressRepo: deps.AddressRepo,
		productRepo: deps.ProductRepo,
		paymentRepo: deps.PaymentRepo,
		gateway:     deps.Gateway,
		finalizer:   deps.Finalizer,
		watcher:     deps.Watcher,
		tasks:       deps.Tasks,
		drafts:      checkout.NewDraftBuilder(),
		now:         time.Now,
	}
}

// QuoteInput 报价输入
type QuoteInput struct {
	CouponCode     string `json:"coupon_code"`
	DeliveryMethod string `json:"delivery_method"`
}

// QuoteResult 报价结果
type QuoteResult struct {
	Items         []CartLine     `json:"items"`
	Quote         checkout.Quote `json:"quote"`
	Coupon        *CouponPreview `json:"coupon,omitempty"`
	GiftEligible  bool           `json:"gift_eligible"`
	GiftProductID uint           `json:"gift_product_id,omitempty"`
	Gift          *GiftLine      `json:"gift,omitempty"`

	coupon *models.Coupon
}

// CreatePaymentInput 创建支付单输入
type CreatePaymentInput struct {
	Form          checkout.DraftForm `json:"form"`
	CouponCode    string             `json:"coupon_code"`
	PaymentMethod string             `json:"payment_method"`
	AddressID     uint               `json:"address_id"`
}

// PaymentView 支付单及关联订单
type PaymentView struct {
	Payment      *models.Payment      `json:"payment"`
	Order        *models.Order        `json:"order,omitempty"`
	BankAccounts []models.BankAccount `json:"bank_accounts,omitempty"`
}

// Quote 按当前购物车报价
func (s *CheckoutService) Quote(ctx context.Context, session *Session, input QuoteInput) (*QuoteResult, error) {
	lines, err := s.cart.List(session)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, session, lines, input)
}

func (s *CheckoutService) quote(ctx context.Context, session *Session, lines []CartLine, input QuoteInput) (*QuoteResult, error) {
	result := &QuoteResult{Items: lines}

	var terms *checkout.CouponTerms
	if input.CouponCode != "" {
		coupon, err := s.coupons.Resolve(input.CouponCode, session.UserID())
		if err != nil {
			return nil, err
		}
		result.coupon = coupon
		terms = couponTerms(coupon)
	}

	items := pricingLines(lines)
	pricing := checkout.PricingInput{
		Items:          items,
		Coupon:         terms,
		DeliveryMethod: strings.ToLower(strings.TrimSpace(input.DeliveryMethod)),
		Now:            s.now(),
	}
	if len(lines) == 0 {
		stored, err := s.storedSubtotal(session)
		if err != nil {
			return nil, err
		}
		pricing.StoredSubtotal = stored
	}
	quote := checkout.Calculate(pricing, s.pricingRules())
	if quote.Coerced > 0 {
		logger.Warnw("checkout_quote_coerced_lines", "user_id", session.UserID(), "count", quote.Coerced)
	}
	result.Quote = quote
	if result.coupon != nil {
		result.Coupon = &CouponPreview{
			Code:               result.coupon.Code,
			DiscountPercentage: result.coupon.DiscountPercentage,
			Discount:           quote.CouponDiscount,
			ExpiresAt:          result.coupon.ExpiresAt,
		}
	}

	if s.gifts != nil {
		rule, err := s.gifts.Rule(ctx)
		if err != nil {
			logger.Warnw("checkout_gift_rule_load_failed", "error", err)
		} else if checkout.QualifiesForGift(items, rule) {
			gift, err := s.giftLine(rule.GiftProductID)
			if err != nil {
				return nil, err
			}
			if gift != nil {
				result.GiftEligible = true
				result.GiftProductID = gift.ProductID
				result.Gift = gift
			}
		}
	}
	return result, nil
}

// storedSubtotal 购物车已清空时取最近一次落单的小计
func (s *CheckoutService) storedSubtotal(session *Session) (decimal.Decimal, error) {
	payment, err := s.paymentRepo.GetLatestFinalizedByUser(session.UserID())
	if err != nil {
		return decimal.Zero, err
	}
	if payment == nil {
		return decimal.Zero, nil
	}
	return payment.Subtotal.Decimal, nil
}

func (s *CheckoutService) giftLine(productID uint) (*GiftLine, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive || product.Stock == 0 {
		return nil, nil
	}
	gift := &GiftLine{ProductID: product.ID, Name: product.Name}
	if len(product.Images) > 0 {
		gift.Image = product.Images[0]
	}
	return gift, nil
}

func (s *CheckoutService) pricingRules() checkout.PricingRules {
	return checkout.PricingRules{
		FreeShippingThreshold: decimal.NewFromFloat(s.cfg.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(s.cfg.ShippingFee),
	}
}

// CreatePayment 校验草稿并创建支付单；QPay 同步创建发票，银行转账等待用户确认
func (s *CheckoutService) CreatePayment(ctx context.Context, session *Session, input CreatePaymentInput) (*PaymentView, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	method := input.PaymentMethod
	switch method {
	case constants.PaymentMethodQPay:
		if s.gateway == nil {
			return nil, ErrPaymentMethodInvalid
		}
	case constants.PaymentMethodBankTransfer:
	default:
		return nil, ErrPaymentMethodInvalid
	}

	form := checkout.Normalize(input.Form)
	if input.AddressID != 0 && form.DeliveryMethod == constants.DeliveryMethodDelivery {
		address, err := s.addressRepo.GetByIDAndUser(input.AddressID, session.UserID())
		if err != nil {
			return nil, err
		}
		if address == nil {
			return nil, ErrAddressNotFound
		}
		form.City, form.District, form.Khoroo, form.Address = address.City, address.District, address.Khoroo, address.Address
	}

	lines, err := s.cart.List(session)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	quoted, err := s.quote(ctx, session, lines, QuoteInput{CouponCode: input.CouponCode, DeliveryMethod: form.DeliveryMethod})
	if err != nil {
		return nil, err
	}
	draft, err := s.drafts.Build(form, quoted.Quote)
	if err != nil {
		return nil, err
	}
	if !draft.Quote.Total.IsPositive() && method == constants.PaymentMethodQPay {
		return nil, ErrPaymentMethodInvalid
	}

	snapshot := PaymentDraft{Form: draft.Form, Quote: draft.Quote, Items: lines, Gift: quoted.Gift}
	if quoted.coupon != nil && draft.Quote.CouponApplied {
		snapshot.CouponID = &quoted.coupon.ID
	}
	draftJSON, err := snapshot.toJSON()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.paymentTTL())
	payment := &models.Payment{
		PaymentNo: generatePaymentNo(now),
		UserID:    session.UserID(),
		Method:    method,
		Status:    constants.PaymentStatusPending,
		Currency:  constants.CurrencyMNT,
		Amount:    models.NewMoneyFromDecimal(draft.Quote.Total),
		Subtotal:  models.NewMoneyFromDecimal(draft.Quote.Subtotal),
		CouponID:  snapshot.CouponID,
		Draft:     draftJSON,
		ExpiresAt: &expiresAt,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	if method == constants.PaymentMethodQPay {
		if err := s.createInvoice(ctx, payment); err != nil {
			return nil, err
		}
		s.startWatch(payment)
	}
	if s.tasks != nil {
		if err := s.tasks.EnqueuePaymentTimeoutCancel(payment.ID, s.paymentTTL()); err != nil {
			logger.Warnw("checkout_enqueue_timeout_failed", "payment_no", payment.PaymentNo, "error", err)
		}
	}
	logger.Infow("checkout_payment_created",
		"payment_no", payment.PaymentNo,
		"user_id", payment.UserID,
		"method", payment.Method,
		"amount", payment.Amount.String(),
	)
	return &PaymentView{Payment: payment}, nil
}

// createInvoice 创建 QPay 发票并回写；失败时支付单标记为 failed
func (s *CheckoutService) createInvoice(ctx context.Context, payment *models.Payment) error {
	invoice, err := s.gateway.CreateInvoice(ctx, qpay.CreateInvoiceInput{
		OrderRef:    payment.PaymentNo,
		Amount:      payment.Amount.Decimal,
		Description: fmt.Sprintf("Order %s", payment.PaymentNo),
		CallbackURL: s.callbackURL(payment.PaymentNo),
	})
	if err != nil {
		logger.Warnw("checkout_invoice_create_failed", "payment_no", payment.PaymentNo, "error", err)
		if _, markErr := s.paymentRepo.TransitionStatus(payment.ID,
			[]string{constants.PaymentStatusPending},
			constants.PaymentStatusFailed,
			map[string]interface{}{"failure_reason": "invoice create failed"},
		); markErr != nil {
			logger.Warnw("checkout_payment_mark_failed_error", "payment_no", payment.PaymentNo, "error", markErr)
		}
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	payment.InvoiceID = invoice.InvoiceID
	payment.QRText = invoice.QRText
	payment.QRImage = invoice.QRImage
	payment.ShortURL = invoice.ShortURL
	payment.Links = make(models.PaymentLinks, 0, len(invoice.Links))
	for _, link := range invoice.Links {
		payment.Links = append(payment.Links, models.PaymentLink{
			Name:        link.Name,
			Description: link.Description,
			Logo:        link.Logo,
			Link:        link.Link,
		})
	}
	return s.paymentRepo.Update(payment)
}

func (s *CheckoutService) callbackURL(paymentNo string) string {
	if s.qpayCfg.CallbackURL == "" {
		return ""
	}
	return s.qpayCfg.CallbackURL + "?payment_no=" + paymentNo
}

// startWatch 队列启用时交给 worker 轮询，否则在本进程内轮询
func (s *CheckoutService) startWatch(payment *models.Payment) {
	if !s.cfg.ServerPolling {
		return
	}
	if s.tasks != nil && s.tasks.Enabled() {
		err := s.tasks.EnqueuePaymentWatch(payment.ID)
		if err == nil {
			return
		}
		logger.Warnw("checkout_enqueue_watch_failed", "payment_no", payment.PaymentNo, "error", err)
	}
	if _, err := s.watcher.Watch(payment); err != nil {
		logger.Warnw("checkout_watch_start_failed", "payment_no", payment.PaymentNo, "error", err)
	}
}

func (s *CheckoutService) paymentTTL() time.Duration {
	minutes := s.cfg.PaymentExpireMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// GetPayment 查看自己的支付单
func (s *CheckoutService) GetPayment(session *Session, paymentNo string) (*PaymentView, error) {
	payment, err := s.ownedPayment(session, paymentNo)
	if err != nil {
		return nil, err
	}
	return s.view(payment)
}

// CheckPayment 用户主动查询支付结果；已支付则立即落单
func (s *CheckoutService) CheckPayment(ctx context.Context, session *Session, paymentNo string) (*PaymentView, error) {
	payment, err := s.ownedPayment(session, paymentNo)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, payment)
}

// HandleCallback 网关回调只作为触发信号，结果以重新查询发票为准
func (s *CheckoutService) HandleCallback(ctx context.Context, paymentNo string) (*PaymentView, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return s.reconcile(ctx, payment)
}

func (s *CheckoutService) reconcile(ctx context.Context, payment *models.Payment) (*PaymentView, error) {
	if payment.Status != constants.PaymentStatusPending || payment.Method != constants.PaymentMethodQPay {
		if payment.Status == constants.PaymentStatusNeedsSupport {
			return nil, &PostPaymentError{PaymentNo: payment.PaymentNo, Cause: errors.New(payment.FailureReason)}
		}
		return s.view(payment)
	}
	if s.gateway == nil || payment.InvoiceID == "" {
		return s.view(payment)
	}

	result, err := s.gateway.CheckInvoice(ctx, payment.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	switch {
	case result.Paid:
		s.watcher.Stop(payment.PaymentNo)
		finalized, err := s.finalizer.FinalizePaid(ctx, payment.PaymentNo)
		if err != nil {
			return nil, err
		}
		return &PaymentView{Payment: finalized.Payment, Order: finalized.Order}, nil
	case result.Failed():
		s.watcher.Stop(payment.PaymentNo)
		if _, err := s.paymentRepo.TransitionStatus(payment.ID,
			[]string{constants.PaymentStatusPending},
			constants.PaymentStatusFailed,
			map[string]interface{}{"failure_reason": "invoice " + result.Status},
		); err != nil {
			return nil, err
		}
		return s.reload(payment.PaymentNo)
	default:
		return s.view(payment)
	}
}

// ConfirmTransfer 用户确认已完成银行转账
func (s *CheckoutService) ConfirmTransfer(ctx context.Context, session *Session, paymentNo string) (*PaymentView, error) {
	result, err := s.finalizer.ConfirmTransfer(ctx, session, paymentNo)
	if err != nil {
		return nil, err
	}
	return &PaymentView{Payment: result.Payment, Order: result.Order}, nil
}

// CancelPayment 用户取消未支付的支付单；取消前确认网关未收款
func (s *CheckoutService) CancelPayment(ctx context.Context, session *Session, paymentNo string) (*PaymentView, error) {
	payment, err := s.ownedPayment(session, paymentNo)
	if err != nil {
		return nil, err
	}
	return s.close(ctx, payment, constants.PaymentStatusCanceled, "canceled by user")
}

// ExpirePayment 超时任务入口：仍未支付则取消发票并标记过期
func (s *CheckoutService) ExpirePayment(ctx context.Context, paymentID uint) error {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return err
	}
	if payment == nil || payment.Status != constants.PaymentStatusPending {
		return nil
	}
	if payment.ExpiresAt != nil && s.now().Before(*payment.ExpiresAt) {
		return nil
	}
	_, err = s.close(ctx, payment, constants.PaymentStatusExpired, "payment expired")
	if errors.Is(err, ErrPaymentClosed) {
		return nil
	}
	return err
}

// ExpireOverdue 兜底扫描过期支付单（队列未启用时由定时器调用），并回收中断在 paid 的支付单
func (s *CheckoutService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	payments, err := s.paymentRepo.ListPendingExpired(s.now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, payment := range payments {
		if err := s.ExpirePayment(ctx, payment.ID); err != nil {
			logger.Warnw("checkout_expire_payment_failed", "payment_no", payment.PaymentNo, "error", err)
			continue
		}
		expired++
	}
	if s.finalizer != nil {
		if _, err := s.finalizer.RecoverStalePaid(ctx, limit); err != nil {
			logger.Warnw("checkout_recover_stale_paid_failed", "error", err)
		}
	}
	return expired, nil
}

// ResumeWatch worker 任务入口：轮询直到结束
func (s *CheckoutService) ResumeWatch(ctx context.Context, paymentID uint) error {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return err
	}
	if payment == nil || payment.Status != constants.PaymentStatusPending {
		return nil
	}
	done, err := s.watcher.Watch(payment)
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		s.watcher.Stop(payment.PaymentNo)
	}
	return nil
}

func (s *CheckoutService) close(ctx context.Context, payment *models.Payment, status, reason string) (*PaymentView, error) {
	if payment.Status != constants.PaymentStatusPending {
		return nil, ErrPaymentClosed
	}
	s.watcher.Stop(payment.PaymentNo)

	if payment.Method == constants.PaymentMethodQPay && payment.InvoiceID != "" && s.gateway != nil {
		result, err := s.gateway.CheckInvoice(ctx, payment.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
		if result.Paid {
			finalized, err := s.finalizer.FinalizePaid(ctx, payment.PaymentNo)
			if err != nil {
				return nil, err
			}
			return &PaymentView{Payment: finalized.Payment, Order: finalized.Order}, nil
		}
		if _, err := s.gateway.CancelInvoice(ctx, payment.InvoiceID); err != nil {
			logger.Warnw("checkout_invoice_cancel_failed", "payment_no", payment.PaymentNo, "error", err)
		}
	}

	changed, err := s.paymentRepo.TransitionStatus(payment.ID,
		[]string{constants.PaymentStatusPending},
		status,
		map[string]interface{}{"failure_reason": reason},
	)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrPaymentClosed
	}
	logger.Infow("checkout_payment_closed", "payment_no", payment.PaymentNo, "status", status)
	return s.reload(payment.PaymentNo)
}

func (s *CheckoutService) ownedPayment(session *Session, paymentNo string) (*models.Payment, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	payment, err := s.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != session.UserID() {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *CheckoutService) reload(paymentNo string) (*PaymentView, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return s.view(payment)
}

func (s *CheckoutService) view(payment *models.Payment) (*PaymentView, error) {
	view := &PaymentView{Payment: payment}
	if payment.Status == constants.PaymentStatusFinalized {
		order, err := s.finalizer.orderRepo.GetByPaymentNo(payment.PaymentNo)
		if err != nil {
			return nil, err
		}
		view.Order = order
	}
	return view, nil
}

// ListPayments 后台支付单列表
func (s *CheckoutService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// GetPaymentAdmin 后台支付单详情
func (s *CheckoutService) GetPaymentAdmin(id uint) (*PaymentView, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return s.view(payment)
}
