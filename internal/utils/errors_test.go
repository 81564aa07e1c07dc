package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := DataError("prepare", "empty observation series", nil)
	if got := err.Error(); got != "prepare: empty observation series" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := FitError("fit", "normal equations are singular", errors.New("matrix singular"))
	if got := wrapped.Error(); got != "fit: normal equations are singular: matrix singular" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{DataError("op", "m", nil), KindData},
		{FitError("op", "m", nil), KindFit},
		{InternalError("op", "m", nil), KindInternal},
		{fmt.Errorf("context: %w", DataError("op", "m", nil)), KindData},
		{errors.New("plain"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("io failure")
	err := InternalError("load", "read failed", inner)
	if !errors.Is(err, inner) {
		t.Error("errors.Is does not reach the wrapped cause")
	}
}

func TestKindString(t *testing.T) {
	if KindData.String() != "data" || KindFit.String() != "fit" || KindInternal.String() != "internal" {
		t.Error("kind labels changed")
	}
}
