package pricing

import (
	"cosmossdk.io/errors"
	"github.com/holiman/uint256"

	"antibtc/internal/fixedpoint"
)

var ErrInvalidReferencePrice = errors.Register("pricing", 1, "invalid reference price")

// InverseModel computes the theoretical synthetic price from a reference
// price: antiPrice = K / referencePrice, in the reference feed's decimals.
// K is the calibration constant fixed at genesis; it is the reference price
// at which one synthetic token is worth exactly one stable unit.
type InverseModel struct {
	k        *uint256.Int
	decimals uint8
	ceiling  *uint256.Int
}

// NewInverseModel builds a model with a calibration constant and an output
// ceiling, both expressed at the given price decimals. Pathologically small
// reference prices saturate at the ceiling rather than overflow.
func NewInverseModel(k *uint256.Int, decimals uint8, ceiling *uint256.Int) (*InverseModel, error) {
	if k == nil || k.IsZero() {
		return nil, ErrInvalidReferencePrice.Wrap("calibration constant must be positive")
	}
	if ceiling == nil || ceiling.IsZero() {
		return nil, ErrInvalidReferencePrice.Wrap("price ceiling must be positive")
	}
	return &InverseModel{k: k.Clone(), decimals: decimals, ceiling: ceiling.Clone()}, nil
}

// K returns the calibration constant.
func (m *InverseModel) K() *uint256.Int {
	return m.k.Clone()
}

// Decimals returns the fixed-point scale of model inputs and outputs.
func (m *InverseModel) Decimals() uint8 {
	return m.decimals
}

// AntiPrice returns K * 10^decimals / referencePrice, truncated toward zero
// and saturated at the configured ceiling. A zero reference price is an
// error, never a division.
func (m *InverseModel) AntiPrice(referencePrice *uint256.Int) (*uint256.Int, error) {
	if referencePrice == nil || referencePrice.IsZero() {
		return nil, ErrInvalidReferencePrice.Wrap("reference price is zero")
	}

	price, err := fixedpoint.ScaledDiv(m.k, m.decimals, referencePrice, m.decimals, m.decimals)
	if err != nil {
		return nil, err
	}
	if price.Gt(m.ceiling) {
		return m.ceiling.Clone(), nil
	}
	return price, nil
}
