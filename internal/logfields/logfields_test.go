package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpers_UseCanonicalKeys(t *testing.T) {
	require.Equal(t, KeyRequestID, RequestID("r1").Key)
	require.Equal(t, KeyFile, File("notes/a.md").Key)
	require.Equal(t, KeyOp, Op("stack").Key)
	require.Equal(t, KeySearchKey, SearchKey("cat.png").Key)
	require.Equal(t, KeyMode, Mode("lenient").Key)
}

func TestError_NilProducesEmptyValue(t *testing.T) {
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
