package yardstick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	for in, want := range map[string]Selector{
		"":     {Index: 0},
		"#2":   {Index: 2},
		"1:10": {Index: -1, Bus: 1, Address: 10},
		"009a": {Index: -1, Serial: "009a"},
	} {
		got, err := ParseSelector(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"#x", "#-1", "a:1", "1:b"} {
		_, err := ParseSelector(bad)
		assert.Error(t, err, bad)
	}
}

func TestSelectorPick(t *testing.T) {
	devices := []*Device{
		{Serial: "009a", Bus: 1, Address: 10},
		{Serial: "00ff", Bus: 1, Address: 11},
		{Serial: "00ff", Bus: 2, Address: 3},
	}

	pick := func(s string) (int, error) {
		sel, err := ParseSelector(s)
		require.NoError(t, err)
		return sel.pick(devices)
	}

	i, err := pick("")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = pick("#2")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = pick("1:11")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = pick("009a")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = pick("00ff")
	assert.ErrorContains(t, err, "multiple devices")

	_, err = pick("#3")
	assert.ErrorContains(t, err, "out of range")

	_, err = pick("beef")
	assert.ErrorContains(t, err, "serial beef")

	_, err = Selector{Index: 0}.pick(nil)
	assert.ErrorIs(t, err, ErrNoDevice)
}
