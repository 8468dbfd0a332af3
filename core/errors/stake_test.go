package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindClassifiesWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrZeroAmount, "ZeroAmount"},
		{fmt.Errorf("%w: unstake 10 > 5", ErrInsufficientBalance), "InsufficientBalance"},
		{fmt.Errorf("%w: %w", ErrTransferFailed, ErrMaxOneBadge), "TransferFailed"},
		{stderrors.New("boom"), "Internal"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
