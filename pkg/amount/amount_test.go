package amount

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "£1,234.56", expected: "1234.56"},
		{input: "(12.34)", expected: "-12.34"},
		{input: "£(1,000.00)", expected: "-1000"},
		{input: "10.00%", expected: "10"},
		{input: "\r\n   £ 52,617,344  \n", expected: "52617344"},
		{input: "-3.5", expected: "-3.5"},
		{input: "£ 1 234.56", expected: "1234.56"},
		{input: ".75", expected: "0.75"},
		{input: "0.00", expected: "0"},
	}

	for _, test := range testCases {
		value, err := Parse(test.input)
		require.NoError(t, err, test.input)
		require.True(
			t,
			value.Equal(decimal.RequireFromString(test.expected)),
			"%q: expected %s, got %s", test.input, test.expected, value,
		)
	}
}

func TestParseKeepsPrecision(t *testing.T) {
	value, err := Parse("£0.01")
	require.NoError(t, err)
	require.Equal(t, "0.01", value.String())

	rate, err := ParsePercent("6.25%")
	require.NoError(t, err)
	require.Equal(t, "0.0625", rate.String())
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"£",
		"abc",
		"1.2.3",
		"--5",
		"(-5)",
		"5-",
		"(12",
		"-",
	} {
		_, err := Parse(input)
		require.Error(t, err, input)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), input)
		require.Equal(t, input, parseErr.Input)
	}
}

func TestParsePercent(t *testing.T) {
	value, err := ParsePercent("10.00%")
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("0.1")))

	_, err = ParsePercent("n/a")
	require.Error(t, err)
}

func TestParseOptionalPercent(t *testing.T) {
	for _, input := range []string{"-", " - ", "\n—\n", "–", "--"} {
		value, err := ParseOptionalPercent(input)
		require.NoError(t, err, input)
		require.True(t, value.IsZero(), input)
	}

	value, err := ParseOptionalPercent("4.7%")
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("0.047")))

	for _, input := range []string{"x.y%", "N/A", "n/a", "pending", "abc%", "", "  \n"} {
		_, err = ParseOptionalPercent(input)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "%q", input)
		require.Equal(t, input, parseErr.Input)
	}
}

func TestParseTrailingPoint(t *testing.T) {
	value, err := Parse("1.")
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(1)))

	value, err = Parse("£(12.)")
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(-12)))

	_, err = Parse(".")
	require.Error(t, err)
}
