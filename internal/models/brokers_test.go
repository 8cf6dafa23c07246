package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClientID(t *testing.T) {
	tests := []struct {
		name   string
		broker string
		raw    string
		want   string
		ok     bool
	}{
		{"exness too short", "Exness", "12345", "", false},
		{"exness minimum length", "Exness", "123456", "123456", true},
		{"exness with spaces", "Exness", "  123456  ", "123456", true},
		{"exness letters rejected", "Exness", "abc123", "", false},
		{"xm digits", "XM", "1234567", "1234567", true},
		{"xm letters rejected", "XM", "12a4567", "", false},
		{"vantage digits", "Vantage", "987654321", "987654321", true},
		{"ic markets alphanumeric", "IC Markets", "AB12cd", "AB12cd", true},
		{"ic markets too short", "IC Markets", "ab1", "", false},
		{"ic markets symbols rejected", "IC Markets", "ab-12", "", false},
		{"fbs digits", "FBS", "55555", "55555", true},
		{"unknown broker", "Oanda", "123456", "", false},
		{"empty input", "XM", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeClientID(tt.broker, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBrokerByName(t *testing.T) {
	b, ok := BrokerByName("Vantage")
	require.True(t, ok)
	assert.True(t, b.HasAPI)
	assert.True(t, b.HasTradeActivity)

	b, ok = BrokerByName("Exness")
	require.True(t, ok)
	assert.False(t, b.HasAPI)

	_, ok = BrokerByName("vantage")
	assert.False(t, ok, "lookup is case sensitive")
}
