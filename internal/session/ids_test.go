package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

func TestIDEncodings(t *testing.T) {
	assert.Equal(t, "sw_42", LegacyID(42))
	assert.Equal(t, "chk_42", UCPID(42))
}

func TestParseIDAcceptsBothForms(t *testing.T) {
	for _, id := range []string{"sw_42", "chk_42", " sw_42 "} {
		number, err := ParseID(id)
		require.NoError(t, err, id)
		assert.Equal(t, int64(42), number, id)
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "42", "ord_42", "sw_", "sw_abc", "chk_-1", "sw_0"} {
		_, err := ParseID(id)
		require.Error(t, err, id)
		coded := pkgerrors.As(err)
		require.NotNil(t, coded, id)
		assert.Equal(t, pkgerrors.CodeSessionNotFound, coded.Code(), id)
	}
}
