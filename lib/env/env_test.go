package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv(string(DatasetId), "dataset-1")

	value, err := Get(DatasetId)
	require.NoError(t, err)
	require.Equal(t, "dataset-1", value)

	_, err = Get(Name("SCRAPELESS_TEST_SURELY_UNDEFINED"))
	require.ErrorContains(t, err, "SCRAPELESS_TEST_SURELY_UNDEFINED")
}

func TestGetWithDefault(t *testing.T) {
	testCases := []struct {
		value    string
		set      bool
		expected string
	}{
		{value: "https://example.test", set: true, expected: "https://example.test"},
		{value: "", set: true, expected: "https://default.test"},
		{set: false, expected: "https://default.test"},
	}

	for _, test := range testCases {
		name := Name("SCRAPELESS_TEST_DEFAULTED")
		if test.set {
			t.Setenv(string(name), test.value)
		}
		require.Equal(t, test.expected, GetWithDefault(name, "https://default.test"))
	}
}
