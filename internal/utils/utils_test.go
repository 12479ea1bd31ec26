package utils_test

import (
	"testing"
	"unicode/utf8"

	"github.com/jrsteele09/azcreds/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestNonEmpty(t *testing.T) {
	require.Nil(t, utils.NonEmpty(""))
	require.Equal(t, "x", utils.Value(utils.NonEmpty("x")))
	require.Equal(t, "", utils.Value[string](nil))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", utils.Truncate("abcdef", 3))
	require.Equal(t, "ab", utils.Truncate("ab", 3))
	require.Equal(t, "ab", utils.Truncate("ab", -1))

	t.Run("keeps runes whole", func(t *testing.T) {
		got := utils.Truncate("aé€", 4)
		require.Equal(t, "aé", got)
		require.True(t, utf8.ValidString(got))
		require.Equal(t, "", utils.Truncate("€", 2))
	})
}

func TestYesNo(t *testing.T) {
	require.Equal(t, "yes", utils.YesNo(true, "no"))
	require.Equal(t, "no-expired", utils.YesNo(false, "no-expired"))
}
