package settlement

import (
	"github.com/holiman/uint256"

	serrors "settler/errors"
)

// Apply nets a merge and a split into value and returns the new value:
// value + merge - split. The gate has already asserted that exactly one of
// merge/split is nonzero, so this reduces to one addition or one bounded
// subtraction. The subtraction bound is re-checked here: upstream is
// expected to net before settling, but a split below zero must fail typed
// rather than wrap.
func Apply(value, merge, split *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(value, merge)
	if overflow {
		return nil, serrors.New(serrors.ErrCodeInvariant, "accumulator overflow")
	}
	if out.Cmp(split) < 0 {
		return nil, serrors.Newf(serrors.ErrCodeInsufficient,
			"cannot split %s from accumulated %s", split.Dec(), out.Dec())
	}
	return out.Sub(out, split), nil
}
