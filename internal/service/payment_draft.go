package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/checkout"
	"github.com/tavan-shop/storefront/internal/models"

	"github.com/google/uuid"
)

// GiftLine 满赠附带的赠品
type GiftLine struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
}

// PaymentDraft 支付单中保存的订单快照，支付完成后据此生成订单
type PaymentDraft struct {
	Form     checkout.DraftForm `json:"form"`
	Quote    checkout.Quote     `json:"quote"`
	Items    []CartLine         `json:"items"`
	Gift     *GiftLine          `json:"gift,omitempty"`
	CouponID *uint              `json:"coupon_id,omitempty"`
}

func (d PaymentDraft) toJSON() (models.JSON, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	out := models.JSON{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodePaymentDraft(raw models.JSON) (*PaymentDraft, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("payment draft empty")
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var draft PaymentDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("decode payment draft: %w", err)
	}
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("payment draft has no items")
	}
	return &draft, nil
}

// generatePaymentNo 支付单号，同时作为发给网关的订单引用
func generatePaymentNo(now time.Time) string {
	return "TVP" + now.Format("060102150405") + shortUUID()
}

func generateOrderNo(now time.Time) string {
	return "TV" + now.Format("060102150405") + shortUUID()
}

func shortUUID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
