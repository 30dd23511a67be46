package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/tavan-shop/storefront/internal/constants"

	"github.com/go-playground/validator/v10"
)

// DraftForm 结账表单输入
type DraftForm struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
	DeliveryMethod string `json:"delivery_method" validate:"required,oneof=delivery pickup invoice"`
	InvoiceType    string `json:"invoice_type" validate:"required,oneof=individual organization taxpayer"`
	RegisterNumber string `json:"register_number" validate:"required_unless=InvoiceType individual"`
	City           string `json:"city" validate:"required_if=DeliveryMethod delivery"`
	District       string `json:"district" validate:"required_if=DeliveryMethod delivery"`
	Khoroo         string `json:"khoroo" validate:"required_if=DeliveryMethod delivery"`
	Address        string `json:"address" validate:"required_if=DeliveryMethod delivery"`
}

// Draft 校验通过的订单草稿，构建后不再修改
type Draft struct {
	Form  DraftForm `json:"form"`
	Quote Quote     `json:"quote"`
}

// FieldError 单个字段错误
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError 表单校验失败，列出全部不合法字段
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "checkout draft invalid: " + strings.Join(names, ",")
}

// ErrDraftInvalid 用于 errors.Is 判断
var ErrDraftInvalid = errors.New("checkout draft invalid")

// Is 支持 errors.Is(err, ErrDraftInvalid)
func (e *ValidationError) Is(target error) bool {
	return target == ErrDraftInvalid
}

// DraftBuilder 订单草稿构建器
type DraftBuilder struct {
	validate *validator.Validate
}

// NewDraftBuilder 创建草稿构建器
func NewDraftBuilder() *DraftBuilder {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &DraftBuilder{validate: v}
}

// Normalize 去除空白并补全默认值，地址字段仅在配送时保留
func Normalize(form DraftForm) DraftForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Phone = strings.TrimSpace(form.Phone)
	form.DeliveryMethod = strings.ToLower(strings.TrimSpace(form.DeliveryMethod))
	form.InvoiceType = strings.ToLower(strings.TrimSpace(form.InvoiceType))
	if form.InvoiceType == "" {
		form.InvoiceType = constants.InvoiceTypeIndividual
	}
	form.RegisterNumber = strings.TrimSpace(form.RegisterNumber)
	if form.InvoiceType == constants.InvoiceTypeIndividual {
		form.RegisterNumber = ""
	}
	if form.DeliveryMethod != constants.DeliveryMethodDelivery {
		form.City, form.District, form.Khoroo, form.Address = "", "", "", ""
	} else {
		form.City = strings.TrimSpace(form.City)
		form.District = strings.TrimSpace(form.District)
		form.Khoroo = strings.TrimSpace(form.Khoroo)
		form.Address = strings.TrimSpace(form.Address)
	}
	return form
}

// Validate 校验表单，返回 *ValidationError
func (b *DraftBuilder) Validate(form DraftForm) error {
	err := b.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Build 规范化并校验表单，生成不可变草稿
func (b *DraftBuilder) Build(form DraftForm, quote Quote) (Draft, error) {
	normalized := Normalize(form)
	if err := b.Validate(normalized); err != nil {
		return Draft{}, err
	}
	return Draft{Form: normalized, Quote: quote}, nil
}
