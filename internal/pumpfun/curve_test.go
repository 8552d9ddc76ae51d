package pumpfun

import (
	"encoding/binary"
	"testing"

	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/pkg/anchor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteBuy_ReferenceVector(t *testing.T) {
	// x*y=k with no fee: 1,000,000 * 100 / (1,000 + 100) = 90,909.09 -> floor
	out, err := QuoteBuy(100, 1_000_000, 1_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(90_909), out)
}

func TestQuoteBuy_FeeReducesOutput(t *testing.T) {
	noFee, err := QuoteBuy(1_000_000_000, config.InitialVirtualTokenReserves, config.InitialVirtualSolReserves, 0)
	require.NoError(t, err)

	withFee, err := QuoteBuy(1_000_000_000, config.InitialVirtualTokenReserves, config.InitialVirtualSolReserves, config.CurveFeeBasisPoints)
	require.NoError(t, err)

	assert.Less(t, withFee, noFee)
}

func TestQuoteBuy_Monotonic(t *testing.T) {
	prev := uint64(0)
	for _, solIn := range []uint64{1_000, 1_000_000, 1_000_000_000, 50_000_000_000} {
		out, err := QuoteBuy(solIn, config.InitialVirtualTokenReserves, config.InitialVirtualSolReserves, config.CurveFeeBasisPoints)
		require.NoError(t, err)
		assert.Greater(t, out, prev, "larger input must buy more tokens")
		prev = out
	}
}

func TestQuoteBuy_NeverDrainsReserves(t *testing.T) {
	// Even an absurd input cannot buy the whole virtual reserve.
	out, err := QuoteBuy(1<<62, config.InitialVirtualTokenReserves, config.InitialVirtualSolReserves, 0)
	require.NoError(t, err)
	assert.Less(t, out, config.InitialVirtualTokenReserves)
}

func TestQuoteBuy_ZeroInput(t *testing.T) {
	out, err := QuoteBuy(0, 1_000_000, 1_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out)
}

func TestQuoteBuy_InvalidReserves(t *testing.T) {
	_, err := QuoteBuy(100, 0, 1_000, 0)
	assert.ErrorIs(t, err, ErrInvalidReserves)

	_, err = QuoteBuy(100, 1_000_000, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidReserves)
}

func TestQuoteSell_RoundTripLosesToFeeAndRounding(t *testing.T) {
	vTok := config.InitialVirtualTokenReserves
	vSol := config.InitialVirtualSolReserves

	tokens, err := QuoteBuy(1_000_000_000, vTok, vSol, config.CurveFeeBasisPoints)
	require.NoError(t, err)

	// Selling straight back at the same reserves can never return more than
	// was put in.
	back, err := QuoteSell(tokens, vTok, vSol, config.CurveFeeBasisPoints)
	require.NoError(t, err)
	assert.Less(t, back, uint64(1_000_000_000))
}

func TestQuoteSell_InvalidReserves(t *testing.T) {
	_, err := QuoteSell(100, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidReserves)
}

func TestParseBondingCurveState(t *testing.T) {
	data := make([]byte, bondingCurveAccountSize)
	copy(data, bondingCurveDiscriminator.Bytes())
	binary.LittleEndian.PutUint64(data[8:], 111)  // virtual token reserves
	binary.LittleEndian.PutUint64(data[16:], 222) // virtual sol reserves
	binary.LittleEndian.PutUint64(data[24:], 333) // real token reserves
	binary.LittleEndian.PutUint64(data[32:], 444) // real sol reserves
	binary.LittleEndian.PutUint64(data[40:], 555) // total supply
	data[48] = 1

	state, err := ParseBondingCurveState(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(111), state.VirtualTokenReserves)
	assert.Equal(t, uint64(222), state.VirtualSolReserves)
	assert.Equal(t, uint64(333), state.RealTokenReserves)
	assert.Equal(t, uint64(444), state.RealSolReserves)
	assert.Equal(t, uint64(555), state.TokenTotalSupply)
	assert.True(t, state.Complete)
}

func TestParseBondingCurveState_TooShort(t *testing.T) {
	_, err := ParseBondingCurveState(make([]byte, 10))
	assert.Error(t, err)
}

func TestParseBondingCurveState_WrongAccountKind(t *testing.T) {
	data := make([]byte, bondingCurveAccountSize)
	copy(data, anchor.ComputeAccountDiscriminator("Global").Bytes())

	_, err := ParseBondingCurveState(data)
	assert.ErrorContains(t, err, "not a bonding curve account")
}
