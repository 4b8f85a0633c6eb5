package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebtLedger_BorrowAccrueRepay(t *testing.T) {
	d := &DebtLedger{}
	d.Borrow(16)
	d.AccrueInterest(0) // first call only anchors LastAccrualFuel, no time has elapsed
	require.Equal(t, uint64(16), d.Outstanding)

	d.AccrueInterest(1) // one fuel unit elapsed: interest = 16 * 1 / 16 = 1
	require.Equal(t, uint64(17), d.Outstanding)

	d.Repay(20)
	require.Equal(t, uint64(0), d.Outstanding)
}

func TestDebtLedger_AccrueInterestIsNoOpWithoutOutstandingDebt(t *testing.T) {
	d := &DebtLedger{}
	d.AccrueInterest(100)
	require.Equal(t, uint64(0), d.Outstanding)
	require.Equal(t, uint64(100), d.LastAccrualFuel)
}

func TestDebtLedger_AccrueInterestIsNoOpWithoutElapsedFuel(t *testing.T) {
	d := &DebtLedger{Outstanding: 16, LastAccrualFuel: 10}
	d.AccrueInterest(10) // no fuel elapsed since last accrual
	require.Equal(t, uint64(16), d.Outstanding)
}

func TestDebtLedger_RepayPartial(t *testing.T) {
	d := &DebtLedger{Outstanding: 10}
	d.Repay(3)
	require.Equal(t, uint64(7), d.Outstanding)
}
