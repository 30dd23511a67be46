package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 通用 JSON 对象字段，用于支付单草稿快照
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	bytes, ok := asBytes(value)
	if !ok {
		*j = make(JSON)
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray 字符串数组类型，用于存储图片、尺码、颜色
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	bytes, ok := asBytes(value)
	if !ok {
		*s = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// PaymentLinks 银行 App 深链列表
type PaymentLinks []PaymentLink

// PaymentLink 单个银行 App 深链
type PaymentLink struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Link        string `json:"link"`
}

// Value 实现 driver.Valuer 接口
func (l PaymentLinks) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *PaymentLinks) Scan(value interface{}) error {
	bytes, ok := asBytes(value)
	if !ok {
		*l = PaymentLinks{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// sqlite 驱动可能返回 string
func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, len(v) > 0
	case string:
		return []byte(v), v != ""
	default:
		return nil, false
	}
}
