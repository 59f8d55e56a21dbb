package controller_test

import (
	"testing"
	"time"

	"github.com/nmurphy101/arena/controller"
	"github.com/stretchr/testify/require"
)

func TestLockTable(t *testing.T) {
	lt := &controller.LockTable{}

	token, err := lt.Lock("g", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, lt.Locked("g"))

	_, err = lt.Lock("g", "other")
	require.Equal(t, controller.ErrIsLocked, err)
	require.Equal(t, controller.ErrIsLocked, lt.Unlock("g", "other"))

	renewed, err := lt.Lock("g", token)
	require.NoError(t, err)
	require.Equal(t, token, renewed)

	require.NoError(t, lt.Unlock("g", token))
	require.False(t, lt.Locked("g"))
	require.NoError(t, lt.Unlock("g", token))
}

func TestLockTableExpiry(t *testing.T) {
	old := controller.LockExpiry
	controller.LockExpiry = 10 * time.Millisecond
	defer func() { controller.LockExpiry = old }()

	lt := &controller.LockTable{}
	_, err := lt.Lock("g", "a")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.False(t, lt.Locked("g"))
	token, err := lt.Lock("g", "b")
	require.NoError(t, err)
	require.Equal(t, "b", token)

	lt.Reset()
	require.False(t, lt.Locked("g"))
}
