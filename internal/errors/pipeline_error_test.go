package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorMessage(t *testing.T) {
	err := NewMissingColumn("ValidateBatch", "clouds_all")
	assert.Contains(t, err.Error(), "ValidateBatch")
	assert.Contains(t, err.Error(), "clouds_all")

	cfg := NewConfigError("Load", "split.seed", "required key is missing")
	assert.Contains(t, cfg.Error(), "split.seed")
}

func TestIsKindMatchesThroughWrapping(t *testing.T) {
	base := NewInvalidType("RemoveOutliers", "temp", "expected a numeric column")
	wrapped := fmt.Errorf("stage failed: %w", base)

	assert.True(t, IsKind(wrapped, KindInvalidType))
	assert.False(t, IsKind(wrapped, KindUnseenCategory))
	assert.False(t, IsKind(errors.New("plain"), KindInvalidType))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("parse failure")
	err := &PipelineError{Kind: KindInvalidInput, Op: "ValidateRecord", Message: "bad record", Cause: cause}

	require.ErrorIs(t, err, cause)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "config", KindConfig.String())
	assert.Equal(t, "unseen category", KindUnseenCategory.String())
}
