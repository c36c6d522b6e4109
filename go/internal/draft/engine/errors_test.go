package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRejectionMatchesSentinelByKind(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("submit: %w", reject(KindNotYourTurn, id, "pick %d belongs to someone else", 3))

	assert.True(t, errors.Is(err, ErrNotYourTurn))
	assert.False(t, errors.Is(err, ErrWindowExpired))
	assert.Equal(t, KindNotYourTurn, KindOf(err))
	assert.Contains(t, err.Error(), "NotYourTurn: pick 3 belongs to someone else")

	assert.Equal(t, RejectionKind(""), KindOf(errors.New("boom")))
	assert.Equal(t, fmt.Sprintf("draft %s: NotLive", id), reject(KindNotLive, id, "").Error())
}

func TestRejectionKindClasses(t *testing.T) {
	assert.True(t, KindScheduleCorrupt.Fatal())
	assert.False(t, KindNoAdmissibleItem.Fatal())
	assert.True(t, KindConflict.Retryable())
	assert.False(t, KindWindowExpired.Retryable())
}
