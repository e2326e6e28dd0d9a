package recordsync_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/recordsync"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := recordsync.Errorf(recordsync.ENOTFOUND, "reference %q not found", "ABC123")

	assert.Equal(t, recordsync.ENOTFOUND, recordsync.ErrorCode(err))
	assert.Equal(t, "reference \"ABC123\" not found", recordsync.ErrorMessage(err))
}

func TestErrorCode_SurvivesWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("publishing: %w", recordsync.Errorf(recordsync.EREMOTE, "HTTP 500"))

	assert.Equal(t, recordsync.EREMOTE, recordsync.ErrorCode(err))
	assert.Equal(t, "HTTP 500", recordsync.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, recordsync.EINTERNAL, recordsync.ErrorCode(err))
	assert.Equal(t, "Internal error", recordsync.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, recordsync.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, recordsync.ErrorMessage(nil))
}
