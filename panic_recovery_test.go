// panic_recovery_test.go: panic recovery tests with logging and custom handlers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecovery_WithStackRecover(t *testing.T) {
	logger := NewTestLogger()

	func() {
		defer withStackRecover(logger)()
		panic("test panic message")
	}()

	msgs := logger.Filter("ERROR", "Panic recovered")
	require.Len(t, msgs, 1)
	assert.Equal(t, []any{"panic", "test panic message"}, msgs[0].Args[:2])
	assert.Equal(t, "stack", msgs[0].Args[2])
	assert.Contains(t, msgs[0].Args[3], "goroutine")
}

func TestPanicRecovery_NoPanicNoLog(t *testing.T) {
	logger := NewTestLogger()
	func() {
		defer withStackRecover(logger)()
	}()
	assert.Empty(t, logger.Snapshot())
}

func TestPanicRecovery_CustomHandler(t *testing.T) {
	var recovered interface{}
	var stack []byte

	func() {
		defer withCustomRecoveryHandler(func(r interface{}, s []byte) {
			recovered = r
			stack = s
		})()
		panic(fmt.Errorf("wrapped"))
	}()

	require.Error(t, recovered.(error))
	assert.NotEmpty(t, stack)
}

func TestCallRecovered(t *testing.T) {
	t.Run("ReturnsError", func(t *testing.T) {
		want := fmt.Errorf("plain")
		assert.Same(t, want, callRecovered("m", func() error { return want }))
	})

	t.Run("ConvertsPanic", func(t *testing.T) {
		err := callRecovered("plugins.bad", func() error {
			var m map[string]int
			m["boom"] = 1
			return nil
		})
		coded := requireErrorCode(t, err, ErrCodeModulePanic)
		assert.Equal(t, "plugins.bad", coded.Context["module"])
		assert.NotEmpty(t, panicStack(err))
	})

	t.Run("NilOnSuccess", func(t *testing.T) {
		assert.NoError(t, callRecovered("m", func() error { return nil }))
	})
}
