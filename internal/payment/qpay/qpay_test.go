package qpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeQPay struct {
	tokenCalls   int32
	invoiceBody  map[string]interface{}
	invoiceResp  map[string]interface{}
	invoiceState string
	invoiceTotal float64
	paidAmount   float64
	failStatus   int
}

func (f *fakeQPay) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "merchant" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(&f.tokenCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/invoice", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.failStatus != 0 {
			w.WriteHeader(f.failStatus)
			_, _ = w.Write([]byte(`{"error":"INVOICE_CODE_INVALID"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.invoiceBody)
		_ = json.NewEncoder(w).Encode(f.invoiceResp)
	})
	mux.HandleFunc("/invoice/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"invoice_id":     strings.TrimPrefix(r.URL.Path, "/invoice/"),
				"invoice_status": f.invoiceState,
				"total_amount":   f.invoiceTotal,
			})
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/payment/check", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["object_type"] != "INVOICE" {
			t.Errorf("unexpected object_type: %v", body["object_type"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"count":       1,
			"paid_amount": f.paidAmount,
		})
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeQPay) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		Username:    "merchant",
		Password:    "secret",
		InvoiceCode: "SHOP_INVOICE",
		CallbackURL: "https://shop.example.mn/api/v1/payments/qpay/callback",
	}, srv.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{InvoiceCode: "X"}, nil)
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestCreateInvoiceSynthesizesMissingQRImage(t *testing.T) {
	fake := &fakeQPay{invoiceResp: map[string]interface{}{
		"invoice_id":    "INV-1",
		"qr_text":       "0002010102121531 qr&text",
		"qPay_shortUrl": "https://s.qpay.mn/abc",
		"urls": []map[string]interface{}{
			{"name": "Khan bank", "description": "Хаан банк", "logo": "https://logo/khan.png", "link": "khanbank://q?qPay_QRcode=xyz"},
		},
	}}
	client := newTestClient(t, fake)

	inv, err := client.CreateInvoice(context.Background(), CreateInvoiceInput{
		OrderRef: "PAY-001",
		Amount:   decimal.NewFromInt(55000),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if inv.InvoiceID != "INV-1" || len(inv.Links) != 1 {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if !strings.HasPrefix(inv.QRImage, defaultQRRenderURL) || !strings.Contains(inv.QRImage, "qr%26text") {
		t.Fatalf("qr image not synthesized: %s", inv.QRImage)
	}
	if fake.invoiceBody["sender_invoice_no"] != "PAY-001" || fake.invoiceBody["invoice_code"] != "SHOP_INVOICE" {
		t.Fatalf("unexpected request body: %+v", fake.invoiceBody)
	}
	if fake.invoiceBody["amount"].(float64) != 55000 {
		t.Fatalf("unexpected amount: %v", fake.invoiceBody["amount"])
	}
}

func TestCreateInvoiceKeepsBase64QRImage(t *testing.T) {
	fake := &fakeQPay{invoiceResp: map[string]interface{}{
		"invoice_id": "INV-2",
		"qr_text":    "abc",
		"qr_image":   "iVBORw0KGgo",
	}}
	client := newTestClient(t, fake)
	inv, err := client.CreateInvoice(context.Background(), CreateInvoiceInput{OrderRef: "PAY-002", Amount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if inv.QRImage != "data:image/png;base64,iVBORw0KGgo" {
		t.Fatalf("unexpected qr image: %s", inv.QRImage)
	}
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	fake := &fakeQPay{invoiceResp: map[string]interface{}{"invoice_id": "INV-3"}}
	client := newTestClient(t, fake)
	for i := 0; i < 3; i++ {
		if _, err := client.CreateInvoice(context.Background(), CreateInvoiceInput{OrderRef: "PAY-003", Amount: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("create invoice failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&fake.tokenCalls); got != 1 {
		t.Fatalf("expected a single token fetch, got %d", got)
	}

	// 临近过期时重新获取
	client.now = func() time.Time { return time.Now().Add(56 * time.Minute) }
	if _, err := client.CreateInvoice(context.Background(), CreateInvoiceInput{OrderRef: "PAY-003", Amount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if got := atomic.LoadInt32(&fake.tokenCalls); got != 2 {
		t.Fatalf("expected token refresh, got %d fetches", got)
	}
}

func TestCreateInvoiceNon2xxReturnsAPIError(t *testing.T) {
	fake := &fakeQPay{failStatus: http.StatusBadRequest}
	client := newTestClient(t, fake)
	_, err := client.CreateInvoice(context.Background(), CreateInvoiceInput{OrderRef: "PAY-004", Amount: decimal.NewFromInt(1)})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Body, "INVOICE_CODE_INVALID") {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("api error should match ErrRequestFailed")
	}
}

func TestCheckInvoicePaidWhenAmountCovered(t *testing.T) {
	fake := &fakeQPay{invoiceState: "OPEN", invoiceTotal: 55000, paidAmount: 55000}
	client := newTestClient(t, fake)

	result, err := client.CheckInvoice(context.Background(), "INV-1")
	if err != nil {
		t.Fatalf("check invoice failed: %v", err)
	}
	if !result.Paid || result.Status != InvoiceStatusPaid {
		t.Fatalf("expected paid, got %+v", result)
	}

	fake.paidAmount = 20000
	result, err = client.CheckInvoice(context.Background(), "INV-1")
	if err != nil {
		t.Fatalf("check invoice failed: %v", err)
	}
	if result.Paid || result.Failed() {
		t.Fatalf("partial payment must stay pending, got %+v", result)
	}

	fake.paidAmount = 0
	fake.invoiceState = "CANCELLED"
	result, err = client.CheckInvoice(context.Background(), "INV-1")
	if err != nil {
		t.Fatalf("check invoice failed: %v", err)
	}
	if !result.Failed() {
		t.Fatalf("cancelled invoice should be failed, got %+v", result)
	}
}

func TestCancelInvoice(t *testing.T) {
	client := newTestClient(t, &fakeQPay{})
	ok, err := client.CancelInvoice(context.Background(), "INV-9")
	if err != nil || !ok {
		t.Fatalf("cancel invoice failed: ok=%v err=%v", ok, err)
	}
}

func TestTransportFailureIsDistinct(t *testing.T) {
	client, err := NewClient(Config{
		BaseURL:     "http://127.0.0.1:1",
		Username:    "merchant",
		Password:    "secret",
		InvoiceCode: "SHOP_INVOICE",
		Timeout:     time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	_, err = client.CheckInvoice(context.Background(), "INV-1")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
