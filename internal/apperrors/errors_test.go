package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"new", New("Conn.Send", "socket gone"), "Conn.Send: socket gone"},
		{"newf", Newf("Config.Validate", "bad scheme %q", "http"), `Config.Validate: bad scheme "http"`},
		{"wrap", Wrap(errors.New("boom"), "Conn.Open", "dial"), "Conn.Open: dial: boom"},
		{"wrapf", Wrapf(errors.New("eof"), "Config.Load", "read %s", "a.yaml"), "Config.Load: read a.yaml: eof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotConnected, "Conn.Send", "send task")
	assert.ErrorIs(t, err, ErrNotConnected)

	outer := fmt.Errorf("submit: %w", err)
	assert.ErrorIs(t, outer, ErrNotConnected)
	assert.Equal(t, "Conn.Send", Op(outer))
}

func TestOpWithoutAppError(t *testing.T) {
	assert.Empty(t, Op(errors.New("plain")))
	assert.Empty(t, Op(nil))
}
