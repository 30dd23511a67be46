package checkout

import (
	"strconv"
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/constants"

	"github.com/shopspring/decimal"
)

// DefaultFreeShippingThreshold 小计超过该金额免运费（图格里克）
var DefaultFreeShippingThreshold = decimal.NewFromInt(120000)

// Line 参与计价的购物车行
type Line struct {
	ProductID uint
	Price     decimal.Decimal
	Quantity  int
	IsGift    bool
}

// CouponTerms 计价所需的优惠码条款
type CouponTerms struct {
	Code               string
	DiscountPercentage int
	ExpiresAt          *time.Time
	IsActive           bool
}

// Applicable 优惠码在 now 时刻是否可用
func (c *CouponTerms) Applicable(now time.Time) bool {
	if c == nil || !c.IsActive {
		return false
	}
	if c.DiscountPercentage <= 0 {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// PricingRules 运费规则
type PricingRules struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// PricingInput 计价输入
type PricingInput struct {
	Items          []Line
	Coupon         *CouponTerms
	DeliveryMethod string
	// StoredSubtotal 购物车为空时（如下单完成后）回退展示的小计
	StoredSubtotal decimal.Decimal
	Now            time.Time
}

// Quote 报价结果，Total = max(0, Subtotal - CouponDiscount + Shipping)
type Quote struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	Shipping           decimal.Decimal `json:"shipping"`
	CouponDiscount     decimal.Decimal `json:"coupon_discount"`
	Total              decimal.Decimal `json:"total"`
	CouponApplied      bool            `json:"coupon_applied"`
	UsedStoredSubtotal bool            `json:"used_stored_subtotal"`
	// Coerced 被归零的异常行数
	Coerced int `json:"-"`
}

// Calculate 计算订单金额，纯函数
func Calculate(input PricingInput, rules PricingRules) Quote {
	quote := Quote{}

	if len(input.Items) == 0 {
		quote.Subtotal = nonNegative(input.StoredSubtotal)
		quote.UsedStoredSubtotal = true
	} else {
		subtotal := decimal.Zero
		for _, line := range input.Items {
			if line.IsGift {
				continue
			}
			price, qty := line.Price, line.Quantity
			if price.IsNegative() || qty < 0 {
				quote.Coerced++
			}
			price = nonNegative(price)
			if qty < 0 {
				qty = 0
			}
			subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
		quote.Subtotal = subtotal.Round(2)
	}

	quote.Shipping = ShippingFor(input.DeliveryMethod, quote.Subtotal, rules)

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if input.Coupon.Applicable(now) {
		quote.CouponDiscount = CouponDiscount(quote.Subtotal, input.Coupon.DiscountPercentage)
		quote.CouponApplied = quote.CouponDiscount.IsPositive()
	} else {
		quote.CouponDiscount = decimal.Zero
	}

	total := quote.Subtotal.Sub(quote.CouponDiscount).Add(quote.Shipping)
	quote.Total = nonNegative(total).Round(2)
	return quote
}

// ShippingFor 非配送方式或小计超过门槛时免运费
func ShippingFor(deliveryMethod string, subtotal decimal.Decimal, rules PricingRules) decimal.Decimal {
	if deliveryMethod != constants.DeliveryMethodDelivery {
		return decimal.Zero
	}
	threshold := rules.FreeShippingThreshold
	if threshold.IsZero() {
		threshold = DefaultFreeShippingThreshold
	}
	if subtotal.GreaterThan(threshold) {
		return decimal.Zero
	}
	return nonNegative(rules.ShippingFee).Round(2)
}

// CouponDiscount 按百分比计算折扣，最多等于小计
func CouponDiscount(subtotal decimal.Decimal, percentage int) decimal.Decimal {
	if percentage <= 0 || !subtotal.IsPositive() {
		return decimal.Zero
	}
	if percentage > 100 {
		percentage = 100
	}
	discount := subtotal.Mul(decimal.NewFromInt(int64(percentage))).Div(decimal.NewFromInt(100)).Round(2)
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// CoerceAmount 将客户端传入的金额解析为 decimal，非法值按 0 处理
func CoerceAmount(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		if v.IsNegative() {
			return decimal.Zero, false
		}
		return v, true
	case float64:
		if v < 0 || v != v {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case int:
		if v < 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(v)), true
	case int64:
		if v < 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || d.IsNegative() {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// CoerceQuantity 将客户端传入的数量解析为非负整数，非法值按 0 处理
func CoerceQuantity(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	case int64:
		if v < 0 {
			return 0, false
		}
		return int(v), true
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// GiftRule 满赠门槛
type GiftRule struct {
	ThresholdType  string
	ThresholdValue decimal.Decimal
	GiftProductID  uint
}

// QualifiesForGift 按金额（非赠品小计）或件数（非赠品数量）判断是否达到满赠门槛
func QualifiesForGift(items []Line, rule *GiftRule) bool {
	if rule == nil || rule.GiftProductID == 0 || !rule.ThresholdValue.IsPositive() {
		return false
	}
	subtotal := decimal.Zero
	count := 0
	for _, line := range items {
		if line.IsGift || line.Quantity <= 0 {
			continue
		}
		count += line.Quantity
		subtotal = subtotal.Add(nonNegative(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	switch rule.ThresholdType {
	case constants.GiftThresholdAmount:
		return subtotal.GreaterThanOrEqual(rule.ThresholdValue)
	case constants.GiftThresholdCount:
		return decimal.NewFromInt(int64(count)).GreaterThanOrEqual(rule.ThresholdValue)
	default:
		return false
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
