package ttesting

import (
	"bytes"
	"errors"
	"testing"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualUint32(t *testing.T, name string, got, want uint32) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualBytes(t *testing.T, name string, got, want []byte) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if !bytes.Equal(got, want) {
			t.Errorf("got % x; want % x", got, want)
		}
	})
}

// AssertErrorIs checks errors.Is(got, want), so wrapped errors are accepted.
func AssertErrorIs(t *testing.T, name string, got, want error) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if !errors.Is(got, want) {
			t.Errorf("got error %v; want %v", got, want)
		}
	})
}
