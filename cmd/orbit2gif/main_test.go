package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/orbit2gif/internal/engine"
	"github.com/ivlev/orbit2gif/internal/renderer"
)

func TestFailureMessageKeepsFrameCounts(t *testing.T) {
	err := fmt.Errorf("run: %w", &engine.StageError{
		Stage:    engine.StageRender,
		Mode:     "orbit",
		Expected: 48,
		Found:    12,
		Err:      renderer.ErrTimeout,
	})

	msg := failureMessage(err)
	assert.Contains(t, msg, "render")
	assert.Contains(t, msg, "frames expected 48, found 12")
	assert.Contains(t, msg, renderer.ErrTimeout.Error())
}

func TestFailureMessagePlainError(t *testing.T) {
	assert.Equal(t, "[-] Ошибка проекта: boom", failureMessage(errors.New("boom")))
}
