package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/taskshare-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestEntitySpecificErrorsWrapGenericOnes(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, store.ErrUserNotFound, store.ErrNotFound)
	assert.ErrorIs(t, store.ErrTaskNotFound, store.ErrNotFound)
	assert.ErrorIs(t, store.ErrEmailExists, store.ErrDuplicate)
	assert.ErrorIs(t, store.ErrUsernameExists, store.ErrDuplicate)
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrTaskNotFound))
	assert.True(t, store.IsNotFoundError(fmt.Errorf("fetching: %w", store.ErrUserNotFound)))
	assert.False(t, store.IsNotFoundError(store.ErrDuplicate))
	assert.False(t, store.IsNotFoundError(errors.New("unrelated")))
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsDuplicateError(store.ErrUsernameExists))
	assert.True(t, store.IsDuplicateError(fmt.Errorf("creating: %w", store.ErrEmailExists)))
	assert.False(t, store.IsDuplicateError(store.ErrNotFound))
}
