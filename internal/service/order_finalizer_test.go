package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/models"

	"github.com/shopspring/decimal"
)

func createQPayPayment(t *testing.T, f *checkoutFixture, couponCode string) *models.Payment {
	t.Helper()
	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		CouponCode:    couponCode,
		PaymentMethod: constants.PaymentMethodQPay,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return view.Payment
}

func TestFinalizePaidConcurrentCallsCreateOneOrder(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 2)
	payment := createQPayPayment(t, f, "")

	const callers = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.finalizer.FinalizePaid(context.Background(), payment.PaymentNo)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if result.Created {
				created++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected finalize errors: %v", errs)
	}
	if created != 1 {
		t.Fatalf("expected exactly one creator, got %d", created)
	}
	if got := f.countOrders(t); got != 1 {
		t.Fatalf("expected 1 order, got %d", got)
	}

	again, err := f.finalizer.FinalizePaid(context.Background(), payment.PaymentNo)
	if err != nil {
		t.Fatalf("repeat finalize failed: %v", err)
	}
	if again.Created || again.Order == nil {
		t.Fatalf("repeat finalize should return existing order: %+v", again)
	}
	if len(again.Order.Items) != 1 || again.Order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", again.Order.Items)
	}

	var product models.Product
	if err := f.db.First(&product, f.product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if product.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", product.Stock)
	}
}

func TestFinalizePaidPersistFailureNeedsSupport(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	payment := createQPayPayment(t, f, "")

	if err := f.db.Migrator().DropTable(&models.OrderItem{}); err != nil {
		t.Fatalf("drop order items failed: %v", err)
	}

	_, err := f.finalizer.FinalizePaid(context.Background(), payment.PaymentNo)
	if !errors.Is(err, ErrPaidOrderPersistFailed) {
		t.Fatalf("expected persist failure, got %v", err)
	}
	var postErr *PostPaymentError
	if !errors.As(err, &postErr) || postErr.PaymentNo != payment.PaymentNo {
		t.Fatalf("expected PostPaymentError for %s, got %v", payment.PaymentNo, err)
	}

	stored := f.reloadPayment(t, payment.PaymentNo)
	if stored.Status != constants.PaymentStatusNeedsSupport {
		t.Fatalf("expected needs_support, got %s", stored.Status)
	}
	if stored.PaidAt == nil {
		t.Fatalf("paid_at should be kept for support")
	}
	if got := f.countOrders(t); got != 0 {
		t.Fatalf("order insert should roll back, got %d", got)
	}
	lines, err := f.cart.List(f.session)
	if err != nil || len(lines) != 1 {
		t.Fatalf("cart should be kept, got %d lines err=%v", len(lines), err)
	}

	if _, err := f.checkout.CheckPayment(context.Background(), f.session, payment.PaymentNo); !errors.Is(err, ErrPaidOrderPersistFailed) {
		t.Fatalf("check should keep reporting support case, got %v", err)
	}
}

func TestFinalizePaidRejectsBankTransfer(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if _, err := f.finalizer.FinalizePaid(context.Background(), view.Payment.PaymentNo); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected method invalid, got %v", err)
	}
}

func TestConfirmTransferCreatesAwaitingOrder(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	f.createCoupon(t, "AUTUMN", 20)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		CouponCode:    "AUTUMN",
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if view.Payment.InvoiceID != "" || len(f.gateway.created) != 0 {
		t.Fatalf("bank transfer must not create invoice")
	}

	confirmed, err := f.checkout.ConfirmTransfer(context.Background(), f.session, view.Payment.PaymentNo)
	if err != nil {
		t.Fatalf("confirm transfer failed: %v", err)
	}
	order := confirmed.Order
	if order == nil || order.Status != constants.OrderStatusAwaitingTransfer {
		t.Fatalf("expected awaiting transfer order, got %+v", order)
	}
	if !order.DiscountAmount.Equal(decimal.NewFromInt(10000)) || !order.TotalAmount.Equal(decimal.NewFromInt(45000)) {
		t.Fatalf("unexpected order amounts: discount=%s total=%s", order.DiscountAmount, order.TotalAmount)
	}
	if order.City != "Ulaanbaatar" || order.PaymentMethod != constants.PaymentMethodBankTransfer {
		t.Fatalf("order snapshot incomplete: %+v", order)
	}

	again, err := f.checkout.ConfirmTransfer(context.Background(), f.session, view.Payment.PaymentNo)
	if err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if again.Order == nil || again.Order.ID != order.ID {
		t.Fatalf("repeat confirm should return same order")
	}
	if got := f.countOrders(t); got != 1 {
		t.Fatalf("expected 1 order, got %d", got)
	}
}

func TestConfirmTransferCouponConflictRollsBack(t *testing.T) {
	f := newCheckoutFixture(t, 50000)
	f.addToCart(t, 1)
	coupon := f.createCoupon(t, "SPRING", 10)

	view, err := f.checkout.CreatePayment(context.Background(), f.session, CreatePaymentInput{
		Form:          deliveryForm(),
		CouponCode:    "SPRING",
		PaymentMethod: constants.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	// 另一笔订单先用掉了同一张优惠码
	if err := f.db.Create(&models.CouponUsage{CouponID: coupon.ID, UserID: f.session.SubjectID}).Error; err != nil {
		t.Fatalf("seed coupon usage failed: %v", err)
	}

	_, err = f.checkout.ConfirmTransfer(context.Background(), f.session, view.Payment.PaymentNo)
	if !errors.Is(err, ErrCouponAlreadyUsed) {
		t.Fatalf("expected coupon already used, got %v", err)
	}
	if got := f.reloadPayment(t, view.Payment.PaymentNo).Status; got != constants.PaymentStatusPending {
		t.Fatalf("payment should stay pending, got %s", got)
	}
	if got := f.countOrders(t); got != 0 {
		t.Fatalf("order should roll back, got %d", got)
	}
}
