package models

import "testing"

func TestJSONScanAcceptsDriverShapes(t *testing.T) {
	var fromBytes JSON
	if err := fromBytes.Scan([]byte(`{"coupon_id":3,"form":{"city":"Ulaanbaatar"}}`)); err != nil {
		t.Fatalf("scan bytes failed: %v", err)
	}
	form, ok := fromBytes["form"].(map[string]interface{})
	if !ok || form["city"] != "Ulaanbaatar" || fromBytes["coupon_id"] != float64(3) {
		t.Fatalf("unexpected scan result: %#v", fromBytes)
	}

	var fromString JSON
	if err := fromString.Scan(`{"items":[]}`); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if _, ok := fromString["items"]; !ok {
		t.Fatalf("string column should decode, got %#v", fromString)
	}

	var empty JSON
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("nil column should become an empty object, got %#v", empty)
	}

	if err := empty.Scan([]byte(`not json`)); err == nil {
		t.Fatalf("malformed column should fail")
	}
}

func TestJSONValue(t *testing.T) {
	var missing JSON
	value, err := missing.Value()
	if err != nil || value != nil {
		t.Fatalf("nil map should store NULL, got %v err=%v", value, err)
	}

	value, err = JSON{"total": "55000"}.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	raw, ok := value.([]byte)
	if !ok || string(raw) != `{"total":"55000"}` {
		t.Fatalf("unexpected encoded value: %#v", value)
	}
}

func TestStringArrayScanEmpty(t *testing.T) {
	var sizes StringArray
	if err := sizes.Scan(""); err != nil {
		t.Fatalf("scan empty failed: %v", err)
	}
	if sizes == nil || len(sizes) != 0 {
		t.Fatalf("empty column should become an empty list, got %#v", sizes)
	}
	if err := sizes.Scan(`["S","M"]`); err != nil || len(sizes) != 2 {
		t.Fatalf("scan list failed: %v %#v", err, sizes)
	}
}
