package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 500000 ")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("500000")))

	got, err = ParseAmount("12.505")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("12.51")))

	_, err = ParseAmount("-1")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	_, err = ParseAmount("")
	assert.Error(t, err)
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	name := "Lunch"
	type dto struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Hidden      *string  `json:"-"`
		Plain       string   `json:"plain"`
		Items       []string `json:"items"`
	}
	hidden := "x"
	updates := UpdatesFromPtrDTO(&dto{Name: &name, Hidden: &hidden, Plain: "y", Items: []string{"z"}})
	assert.Equal(t, map[string]any{"name": "Lunch"}, updates)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 3, ParseIntDefault(" 3 ", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("-2", 1))
	assert.Equal(t, 1, ParseIntDefault("abc", 1))
}
