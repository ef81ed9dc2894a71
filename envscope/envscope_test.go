package envscope

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAppliesAndRestoresEnv(t *testing.T) {
	const key = "GLOWWALL_TEST_ENV_RESTORE"
	require.NoError(t, os.Setenv(key, "initial"))
	defer os.Unsetenv(key)

	ctx := New(Var{Name: key, Value: "applied"})
	guard := ctx.Apply()

	v, ok := os.LookupEnv(key)
	require.True(t, ok)
	assert.Equal(t, "applied", v)

	require.NoError(t, guard.Close())

	v, ok = os.LookupEnv(key)
	require.True(t, ok)
	assert.Equal(t, "initial", v)
}

func TestContextAppliesAndRestoresDuplicateKeysInReverseOrder(t *testing.T) {
	const key = "GLOWWALL_TEST_ENV_DUPLICATE"
	require.NoError(t, os.Setenv(key, "initial"))
	defer os.Unsetenv(key)

	ctx := New(
		Var{Name: key, Value: "first"},
		Var{Name: key, Value: "second"},
	)
	guard := ctx.Apply()

	v, ok := os.LookupEnv(key)
	require.True(t, ok)
	assert.Equal(t, "second", v)

	require.NoError(t, guard.Close())

	v, ok = os.LookupEnv(key)
	require.True(t, ok)
	assert.Equal(t, "initial", v)
}

func TestContextRemovesPreviouslyAbsentVariable(t *testing.T) {
	const key = "GLOWWALL_TEST_ENV_ABSENT"
	os.Unsetenv(key)

	ctx := New(Var{Name: key, Value: "applied"})
	guard := ctx.Apply()

	_, ok := os.LookupEnv(key)
	require.True(t, ok)

	require.NoError(t, guard.Close())

	_, ok = os.LookupEnv(key)
	assert.False(t, ok)
}

func TestGuardCloseIsIdempotent(t *testing.T) {
	const key = "GLOWWALL_TEST_ENV_IDEMPOTENT"
	require.NoError(t, os.Setenv(key, "initial"))
	defer os.Unsetenv(key)

	ctx := New(Var{Name: key, Value: "applied"})
	guard := ctx.Apply()

	require.NoError(t, guard.Close())
	require.NoError(t, guard.Close())

	v, ok := os.LookupEnv(key)
	require.True(t, ok)
	assert.Equal(t, "initial", v)
}
