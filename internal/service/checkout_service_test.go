package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/models"

	"github.com/shopspring/decimal"
)

func TestCheckoutQuoteDeliveryShippingAndCoupon(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 2)
	f.createCoupon(t, "SUMMER", 10)

	result, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{
		CouponCode:     "summer",
		DeliveryMethod: constants.DeliveryMethodDelivery,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !result.Quote.Subtotal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected subtotal: %s", result.Quote.Subtotal)
	}
	if !result.Quote.Shipping.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected shipping: %s", result.Quote.Shipping)
	}
	if !result.Quote.CouponDiscount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected discount: %s", result.Quote.CouponDiscount)
	}
	if !result.Quote.Total.Equal(decimal.NewFromInt(95000)) {
		t.Fatalf("unexpected total: %s", result.Quote.Total)
	}
	if result.Coupon == nil || result.Coupon.Code != "SUMMER" {
		t.Fatalf("expected coupon preview, got %+v", result.Coupon)
	}
}

func TestCheckoutQuotePickupIsFreeAndRejectsUnknownCoupon(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	result, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{DeliveryMethod: constants.DeliveryMethodPickup})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !result.Quote.Shipping.IsZero() || !result.Quote.Total.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected pickup quote: %+v", result.Quote)
	}

	if _, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{CouponCode: "NOSUCH"}); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon not found, got %v", err)
	}
}

func TestCheckoutQuoteGiftEligibility(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	gift := &models.Product{Name: "Sample soap", Price: models.NewMoneyFromInt(0), Stock: 5, IsGiftOnly: true, IsActive: true}
	if err := f.db.Create(gift).Error; err != nil {
		t.Fatalf("create gift product failed: %v", err)
	}
	if _, err := f.gifts.Create(context.Background(), GiftSettingInput{
		ThresholdType:  constants.GiftThresholdAmount,
		ThresholdValue: decimal.NewFromInt(100000),
		GiftProductID:  gift.ID,
	}); err != nil {
		t.Fatalf("create gift setting failed: %v", err)
	}

	f.addToCart(t, 1)
	result, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if result.GiftEligible {
		t.Fatalf("gift should not apply below threshold")
	}

	f.addToCart(t, 1)
	result, err = f.checkout.Quote(context.Background(), f.session, QuoteInput{})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !result.GiftEligible || result.GiftProductID != gift.ID {
		t.Fatalf("gift should apply at threshold, got %+v", result)
	}
}

func TestCreatePaymentQPayCreatesInvoice(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	payment := view.Payment
	if payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", payment.Status)
	}
	if payment.InvoiceID == "" || payment.QRText == "" || len(payment.Links) != 1 {
		t.Fatalf("invoice fields not stored: %+v", payment)
	}
	if !payment.Amount.Equal(decimal.NewFromInt(55000)) {
		t.Fatalf("unexpected amount: %s", payment.Amount)
	}
	if len(f.gateway.created) != 1 || f.gateway.created[0].OrderRef != payment.PaymentNo {
		t.Fatalf("unexpected invoice requests: %+v", f.gateway.created)
	}
	stored := f.reloadPayment(t, payment.PaymentNo)
	draft, err := decodePaymentDraft(stored.Draft)
	if err != nil {
		t.Fatalf("decode draft failed: %v", err)
	}
	if draft.Form.City != "Ulaanbaatar" || len(draft.Items) != 1 {
		t.Fatalf("unexpected draft snapshot: %+v", draft)
	}
}

func TestCreatePaymentRejectsInvalidForm(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	form := deliveryForm()
	form.Email = ""
	form.Address = ""
	_, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          form,
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if !errors.Is(err, checkout.ErrDraftInvalid) {
		t.Fatalf("expected draft invalid, got %v", err)
	}
	var verr *checkout.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	var count int64
	f.db.Model(&models.Payment{}).Count(&count)
	if count != 0 {
		t.Fatalf("no payment should be created, got %d", count)
	}
}

func TestCreatePaymentRejectsEmptyCartAndUnknownMethod(t *testing.T) {
	f := newCheckoutFixture(t, 50000)

	_, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got %v", err)
	}

	f.addToCart(t, 1)
	_, err = f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: "cash",
	})
	if !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected invalid method, got %v", err)
	}
}

func TestCreatePaymentGatewayFailureMarksFailed(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	f.gateway.createErr = errGatewayDown

	_, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if !errors.Is(err, ErrPaymentGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	var payment models.Payment
	if err := f.db.First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", payment.Status)
	}
}

func TestWatcherFinalizesOnceWhenPaidOnFourthCheck(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	f.createCoupon(t, "WINTER", 10)
	f.gateway.paidOn = 4

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		CouponCode:    "WINTER",
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	done, err := f.watcher.Watch(view.Payment)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not finish")
	}

	if got := f.gateway.checkCount(); got != 4 {
		t.Fatalf("expected 4 checks, got %d", got)
	}
	payment := f.reloadPayment(t, view.Payment.PaymentNo)
	if payment.Status != constants.PaymentStatusFinalized || payment.OrderID == nil || payment.PaidAt == nil {
		t.Fatalf("payment not finalized: %+v", payment)
	}
	if got := f.countOrders(t); got != 1 {
		t.Fatalf("expected 1 order, got %d", got)
	}
	lines, err := f.cart.List(f.session)
	if err != nil || len(lines) != 0 {
		t.Fatalf("cart should be cleared, got %d lines err=%v", len(lines), err)
	}

	checked, err := f.checkout.CheckPayment(context.Background(), f.session, payment.PaymentNo)
	if err != nil {
		t.Fatalf("check payment failed: %v", err)
	}
	if checked.Order == nil || checked.Order.ID != *payment.OrderID {
		t.Fatalf("expected existing order, got %+v", checked.Order)
	}
	if checked.Order.Status != constants.OrderStatusPaid || !checked.Order.TotalAmount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected order: %+v", checked.Order)
	}
	if got := f.countOrders(t); got != 1 {
		t.Fatalf("expected still 1 order, got %d", got)
	}

	f.addToCart(t, 1)
	if _, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{CouponCode: "WINTER"}); !errors.Is(err, ErrCouponAlreadyUsed) {
		t.Fatalf("expected coupon already used, got %v", err)
	}
}

func TestWatcherGatewayFailureMarksPaymentFailed(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	f.gateway.failStatus = "CANCELLED"

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	done, err := f.watcher.Watch(view.Payment)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not finish")
	}
	if got := f.reloadPayment(t, view.Payment.PaymentNo).Status; got != constants.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	if got := f.countOrders(t); got != 0 {
		t.Fatalf("expected no order, got %d", got)
	}
}

func TestWatcherStopPreventsFinalize(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if _, err := f.watcher.Watch(view.Payment); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	f.watcher.Stop(view.Payment.PaymentNo)
	checks := f.gateway.checkCount()
	f.gateway.mu.Lock()
	f.gateway.paidOn = 1
	f.gateway.mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	if got := f.gateway.checkCount(); got != checks {
		t.Fatalf("stopped watcher kept checking: %d -> %d", checks, got)
	}
	if got := f.reloadPayment(t, view.Payment.PaymentNo).Status; got != constants.PaymentStatusPending {
		t.Fatalf("expected pending after stop, got %s", got)
	}
}

func TestHandleCallbackRechecksInvoice(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	unpaid, err := f.checkout.HandleCallback(context.Background(), view.Payment.PaymentNo)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if unpaid.Payment.Status != constants.PaymentStatusPending || unpaid.Order != nil {
		t.Fatalf("unpaid callback must not finalize: %+v", unpaid.Payment)
	}

	f.gateway.paidOn = 1
	paid, err := f.checkout.HandleCallback(context.Background(), view.Payment.PaymentNo)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if paid.Order == nil || paid.Payment.Status != constants.PaymentStatusFinalized {
		t.Fatalf("paid callback should finalize: %+v", paid.Payment)
	}
}

func TestCancelAndExpirePayment(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	first, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	canceled, err := f.checkout.CancelPayment(context.Background(), f.session, first.Payment.PaymentNo)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Payment.Status != constants.PaymentStatusCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Payment.Status)
	}
	if len(f.gateway.canceled) != 1 || f.gateway.canceled[0] != first.Payment.InvoiceID {
		t.Fatalf("invoice should be canceled at gateway: %+v", f.gateway.canceled)
	}
	if _, err := f.checkout.CancelPayment(context.Background(), f.session, first.Payment.PaymentNo); !errors.Is(err, ErrPaymentClosed) {
		t.Fatalf("expected closed on second cancel, got %v", err)
	}

	second, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if err := f.checkout.ExpirePayment(context.Background(), second.Payment.ID); err != nil {
		t.Fatalf("expire before deadline failed: %v", err)
	}
	if got := f.reloadPayment(t, second.Payment.PaymentNo).Status; got != constants.PaymentStatusPending {
		t.Fatalf("payment expired too early: %s", got)
	}

	f.checkout.now = func() time.Time { return time.Now().Add(time.Hour) }
	expired, err := f.checkout.ExpireOverdue(context.Background(), 10)
	if err != nil {
		t.Fatalf("expire overdue failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired, got %d", expired)
	}
	if got := f.reloadPayment(t, second.Payment.PaymentNo).Status; got != constants.PaymentStatusExpired {
		t.Fatalf("expected expired, got %s", got)
	}
}

func TestPaymentOwnership(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	stranger := &Session{Kind: SessionUser, SubjectID: f.session.SubjectID + 100}
	if _, err := f.checkout.GetPayment(stranger, view.Payment.PaymentNo); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	if _, err := f.checkout.ConfirmTransfer(context.Background(), stranger, view.Payment.PaymentNo); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected not found for stranger confirm, got %v", err)
	}
}

func TestQuoteEmptyCartFallsBackToLastFinalizedSubtotal(t *testing.T) {
	f := newCheckoutFixture(t, 50000)

	empty, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{DeliveryMethod: constants.DeliveryMethodPickup})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !empty.Quote.Subtotal.IsZero() || !empty.Quote.UsedStoredSubtotal {
		t.Fatalf("expected zero stored subtotal without history, got %+v", empty.Quote)
	}

	f.addToCart(t, 1)
	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if _, err := f.checkout.ConfirmTransfer(context.Background(), f.session, view.Payment.PaymentNo); err != nil {
		t.Fatalf("confirm transfer failed: %v", err)
	}

	result, err := f.checkout.Quote(context.Background(), f.session, QuoteInput{DeliveryMethod: constants.DeliveryMethodDelivery})
	if err != nil {
		t.Fatalf("quote after order failed: %v", err)
	}
	if !result.Quote.UsedStoredSubtotal || !result.Quote.Subtotal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("expected stored subtotal 50000, got %+v", result.Quote)
	}
	if !result.Quote.Total.Equal(decimal.NewFromInt(55000)) {
		t.Fatalf("unexpected total: %s", result.Quote.Total)
	}
}

func TestCreatePaymentNormalizesDeliveryBeforeAddressLookup(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	address := &models.Address{UserID: f.session.UserID(), City: "Darkhan", District: "Darkhan", Khoroo: "4", Address: "Building 12"}
	if err := f.db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}

	form := deliveryForm()
	form.DeliveryMethod = " Delivery "
	form.City, form.District, form.Khoroo, form.Address = "", "", "", ""
	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          form,
		AddressID:     address.ID,
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	draft, err := decodePaymentDraft(f.reloadPayment(t, view.Payment.PaymentNo).Draft)
	if err != nil {
		t.Fatalf("decode draft failed: %v", err)
	}
	if draft.Form.DeliveryMethod != constants.DeliveryMethodDelivery || draft.Form.City != "Darkhan" || draft.Form.Address != "Building 12" {
		t.Fatalf("saved address not applied: %+v", draft.Form)
	}
	if !draft.Quote.Shipping.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected delivery shipping, got %s", draft.Quote.Shipping)
	}
}

func TestExpireOverdueMovesStalePaidToNeedsSupport(t *testing.T) {
	f := newCheckoutFixture(t, 50000)

	old := time.Now().Add(-time.Hour)
	fresh := time.Now()
	stale := &models.Payment{PaymentNo: "PAY-STALE", UserID: f.session.UserID(), Method: constants.PaymentMethodQPay,
		Status: constants.PaymentStatusPaid, Currency: constants.CurrencyMNT, Amount: models.NewMoneyFromInt(50000), PaidAt: &old}
	recent := &models.Payment{PaymentNo: "PAY-RECENT", UserID: f.session.UserID(), Method: constants.PaymentMethodQPay,
		Status: constants.PaymentStatusPaid, Currency: constants.CurrencyMNT, Amount: models.NewMoneyFromInt(50000), PaidAt: &fresh}
	for _, p := range []*models.Payment{stale, recent} {
		if err := f.payments.Create(p); err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	if _, err := f.checkout.ExpireOverdue(context.Background(), 10); err != nil {
		t.Fatalf("expire overdue failed: %v", err)
	}
	got := f.reloadPayment(t, "PAY-STALE")
	if got.Status != constants.PaymentStatusNeedsSupport || got.FailureReason == "" {
		t.Fatalf("stale paid payment should need support, got %s %q", got.Status, got.FailureReason)
	}
	if status := f.reloadPayment(t, "PAY-RECENT").Status; status != constants.PaymentStatusPaid {
		t.Fatalf("recent paid payment must be left alone, got %s", status)
	}

	recovered, err := f.finalizer.RecoverStalePaid(context.Background(), 10)
	if err != nil || recovered != 0 {
		t.Fatalf("second recovery should be a no-op, recovered=%d err=%v", recovered, err)
	}
}
