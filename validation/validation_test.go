package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/invstream/errors"
)

func TestValidator_Checks(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Validator)
		want string
	}{
		{"required ok", func(v *Validator) { v.Required("token", "tkn-1") }, ""},
		{"required empty", func(v *Validator) { v.Required("token", "") }, "token: is required"},
		{"required blank", func(v *Validator) { v.Required("token", "   ") }, "token: is required"},
		{"url https", func(v *Validator) { v.URL("endpoint", "https://inv.example.com/v1/stream", "http", "https") }, ""},
		{"url empty", func(v *Validator) { v.URL("endpoint", "") }, "endpoint: is required"},
		{"url relative", func(v *Validator) { v.URL("endpoint", "/v1/stream") }, "endpoint: must be a valid URL"},
		{"url garbage", func(v *Validator) { v.URL("endpoint", "://nope") }, "endpoint: must be a valid URL"},
		{"url scheme", func(v *Validator) { v.URL("endpoint", "ftp://inv.example.com", "http", "https") }, "endpoint: scheme must be one of: http, https"},
		{"url any scheme", func(v *Validator) { v.URL("endpoint", "ftp://inv.example.com") }, ""},
		{"min", func(v *Validator) { v.Min("buffer_size", 0, 1) }, "buffer_size: must be at least 1"},
		{"min ok", func(v *Validator) { v.Min("buffer_size", 1, 1) }, ""},
		{"non negative", func(v *Validator) { v.NonNegative("lots[0].quantity", -1) }, "lots[0].quantity: must be greater than or equal to 0"},
		{"non negative zero", func(v *Validator) { v.NonNegative("lots[0].quantity", 0) }, ""},
		{"min duration", func(v *Validator) { v.MinDuration("open_timeout", -time.Second, 0) }, "open_timeout: must be at least 0s"},
		{"between", func(v *Validator) { v.Between("sample_rate", 1.5, 0, 1) }, "sample_rate: must be between 0 and 1"},
		{"between edge", func(v *Validator) { v.Between("sample_rate", 1, 0, 1) }, ""},
		{"one of", func(v *Validator) { v.OneOf("format", "xml", []string{"json", "console"}) }, "format: must be one of: json, console"},
		{"one of empty", func(v *Validator) { v.OneOf("format", "", []string{"json"}) }, ""},
		{"custom", func(v *Validator) { v.Custom(false, "lots", "must not be empty") }, "lots: must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			tt.run(v)
			appErr := v.Validate()
			if tt.want == "" {
				if appErr != nil {
					t.Fatalf("unexpected error %v", appErr)
				}
				return
			}
			if appErr == nil || appErr.Message != tt.want {
				t.Fatalf("Validate() = %v, want message %q", appErr, tt.want)
			}
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	var zero Validator
	if zero.Validate() != nil {
		t.Fatal("zero Validator should pass")
	}

	v := New().Required("endpoint", "").Min("buffer_size", -1, 1)
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", appErr.Code)
	}
	if want := "endpoint: is required; buffer_size: must be at least 1"; appErr.Message != want {
		t.Errorf("message = %q, want %q", appErr.Message, want)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 || fields[1].Field != "buffer_size" {
		t.Errorf("details = %#v", appErr.Details)
	}
}

type lot struct {
	LotID    string `json:"lotId" validate:"required"`
	Quantity *int64 `json:"quantity" validate:"required,gte=0"`
}

type product struct {
	ProductID string   `json:"productId" validate:"required"`
	Lots      []lot    `json:"lots" validate:"required,dive"`
	Scopes    []string `json:"scopes" validate:"omitempty,dive,oneof=read write"`
	Note      string   `json:"-" validate:"max=4"`
}

func ptr(v int64) *int64 { return &v }

func TestValidate_Struct(t *testing.T) {
	tests := []struct {
		name string
		in   product
		want []string
	}{
		{"valid", product{ProductID: "sku-1", Lots: []lot{{LotID: "L1", Quantity: ptr(0)}}}, nil},
		{"empty lots", product{ProductID: "sku-1", Lots: []lot{}}, nil},
		{"missing lots", product{ProductID: "sku-1"}, []string{"lots: is required"}},
		{
			"nested",
			product{Lots: []lot{{LotID: "L1", Quantity: ptr(-1)}, {Quantity: ptr(1)}}},
			[]string{"productId: is required", "lots[0].quantity: must be greater than or equal to 0", "lots[1].lotId: is required"},
		},
		{"missing quantity", product{ProductID: "p", Lots: []lot{{LotID: "L1"}}}, []string{"lots[0].quantity: is required"}},
		{"one of", product{ProductID: "p", Lots: []lot{}, Scopes: []string{"admin"}}, []string{"scopes[0]: must be one of: read, write"}},
		{"go name when json is hidden", product{ProductID: "p", Lots: []lot{}, Note: "too long"}, []string{"Note: must be at most 4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("Validate() = %v, want invalid input", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("%q missing %q", err.Error(), w)
				}
			}
		})
	}
}

func TestValidate_NotAStruct(t *testing.T) {
	err := Validate(42)
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("Validate(42) = %v", err)
	}
}
