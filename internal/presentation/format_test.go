package presentation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMagnitude(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.345", "12.35"},
		{"999", "999.00"},
		{"1000", "1.00K"},
		{"1500", "1.50K"},
		{"2500000", "2.50M"},
		{"3000000000", "3.00Bi"},
		{"4200000000000", "4.20T"},
		{"1234567890123456", "1234.57T"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMagnitude(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"300", "$300.00"},
		{"1234.56", "$1,234.56"},
		{"1000000", "$1,000,000.00"},
		{"0.1", "$0.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestHoverText(t *testing.T) {
	got := HoverText("Product", "Road Bike", decimal.RequireFromString("1234.56"), 12.3456)
	assert.Equal(t, "<b>Product:</b> Road Bike<br><b>Total:</b> $1,234.56<br><b>Percent:</b> 12.35%", got)
}

func TestHoverText_EscapesName(t *testing.T) {
	got := HoverText("Region", `<script>alert("x")</script>`, decimal.Zero, 0)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "<b>Percent:</b> 0.00%")
}

func TestAnnotation(t *testing.T) {
	assert.Empty(t, Annotation(decimal.RequireFromString("999.99")))
	assert.Equal(t, "$1.00K", Annotation(decimal.NewFromInt(1000)))
	assert.Equal(t, "$2.50M", Annotation(decimal.NewFromInt(2500000)))
}
