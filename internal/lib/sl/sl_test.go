package sl

import (
	"errors"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSecret_MasksMiddle(t *testing.T) {
	attr := Secret("token", "abcdefghij")
	require.Equal(t, "token", attr.Key)
	require.Equal(t, "ab******ij", attr.Value.String())
}

func TestSecret_ShortValueFullyMasked(t *testing.T) {
	require.Equal(t, "****", Secret("k", "abcd").Value.String())
	require.Equal(t, "", Secret("k", "").Value.String())
}

func TestErr(t *testing.T) {
	require.Equal(t, "boom", Err(errors.New("boom")).Value.String())
	require.Equal(t, "", Err(nil).Value.String())
}
