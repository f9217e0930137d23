package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel-pms/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkedInReservation(t *testing.T, f *fixture) *models.Reservation {
	t.Helper()
	guest := f.guest(t, "P-1")
	room := f.room(t, "101", 1000)
	res := f.book(t, guest.ID, uintPtr(room.ID), day(2024, 3, 1), day(2024, 3, 3))
	res, err := f.reservations.CheckIn(context.Background(), res.ID, nil, 1)
	require.NoError(t, err)
	return res
}

func expectedExpenseTotal(e *models.GuestExpense) decimal.Decimal {
	amount := e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
	return amount.Add(amount.Mul(e.TaxPercentage).Div(decimal.NewFromInt(100)).Round(2))
}

func TestExpenseTotalsFollowEveryUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	e, err := f.expenses.Add(ctx, AddExpenseInput{
		ReservationID: res.ID,
		Category:      "Restaurant",
		Description:   "Lunch",
		Quantity:      2,
		UnitPrice:     money("150"),
		TaxPercentage: money("10"),
	}, 3)
	require.NoError(t, err)
	assertMoney(t, "300", e.Amount)
	assertMoney(t, "30", e.TaxAmount)
	assertMoney(t, "330", e.TotalAmount)
	assert.Equal(t, res.GuestID, e.GuestID)
	assert.Equal(t, uint(3), e.AddedBy)
	assert.Equal(t, models.ExpensePending, e.PaymentStatus)

	updates := []UpdateExpenseInput{
		{UnitPrice: decPtr("200")},
		{TaxPercentage: decPtr("0")},
		{Quantity: intPtr(3)},
		{TaxPercentage: decPtr("12.5"), Quantity: intPtr(1)},
		{UnitPrice: decPtr("80"), Quantity: intPtr(4), TaxPercentage: decPtr("5")},
		{Description: strPtr("Late lunch")},
	}
	for i, in := range updates {
		e, err = f.expenses.Update(ctx, e.ID, in)
		require.NoError(t, err, "update %d", i)
		assert.Truef(t, expectedExpenseTotal(e).Equal(e.TotalAmount),
			"update %d: qty=%d price=%s tax=%s total=%s", i, e.Quantity, e.UnitPrice, e.TaxPercentage, e.TotalAmount)

		var stored models.GuestExpense
		f.reload(t, &stored, e.ID)
		assert.Truef(t, stored.TotalAmount.Equal(e.TotalAmount), "update %d not persisted", i)
	}
	assertMoney(t, "336", e.TotalAmount)
	assert.Equal(t, "Late lunch", e.Description)
}

func TestExpenseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	base := AddExpenseInput{ReservationID: res.ID, Category: "Bar", Description: "Cocktail", UnitPrice: money("12")}

	e, err := f.expenses.Add(ctx, base, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Quantity)

	bad := base
	bad.UnitPrice = decimal.Zero
	_, err = f.expenses.Add(ctx, bad, 1)
	requireCode(t, err, ErrValidation, "invalid_unit_price")

	bad = base
	bad.Quantity = -2
	_, err = f.expenses.Add(ctx, bad, 1)
	requireCode(t, err, ErrValidation, "invalid_quantity")

	bad = base
	bad.TaxPercentage = money("101")
	_, err = f.expenses.Add(ctx, bad, 1)
	requireCode(t, err, ErrValidation, "invalid_tax_percentage")

	bad = base
	bad.Category = "Casino"
	_, err = f.expenses.Add(ctx, bad, 1)
	requireCode(t, err, ErrValidation, "invalid_category")

	_, err = f.expenses.Update(ctx, e.ID, UpdateExpenseInput{Quantity: intPtr(0)})
	requireCode(t, err, ErrValidation, "invalid_quantity")

	_, err = f.expenses.Update(ctx, 999, UpdateExpenseInput{Quantity: intPtr(1)})
	requireCode(t, err, ErrNotFound, "expense_not_found")
}

func TestExpenseNeedsGuestInHouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	guest := f.guest(t, "P-1")
	res := f.book(t, guest.ID, nil, day(2024, 3, 1), day(2024, 3, 2))

	_, err := f.expenses.Add(ctx, AddExpenseInput{
		ReservationID: res.ID, Category: "Laundry", Description: "Shirts", UnitPrice: money("5"),
	}, 1)
	requireCode(t, err, ErrConflict, "reservation_not_checked_in")

	_, err = f.expenses.Add(ctx, AddExpenseInput{
		ReservationID: 999, Category: "Laundry", Description: "Shirts", UnitPrice: money("5"),
	}, 1)
	requireCode(t, err, ErrNotFound, "reservation_not_found")
}

func TestFolioTotalsAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	add := func(desc, price string) *models.GuestExpense {
		e, err := f.expenses.Add(ctx, AddExpenseInput{
			ReservationID: res.ID, Category: "Minibar", Description: desc, UnitPrice: money(price),
		}, 1)
		require.NoError(t, err)
		return e
	}
	add("Water", "3")
	soda := add("Soda", "4.5")
	add("Chips", "6")

	folio, err := f.expenses.ListByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, folio.Expenses, 3)
	assertMoney(t, "13.5", folio.Total)

	require.NoError(t, f.expenses.Delete(ctx, soda.ID))
	requireCode(t, f.expenses.Delete(ctx, soda.ID), ErrNotFound, "expense_not_found")

	folio, err = f.expenses.ListByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, folio.Expenses, 2)
	assertMoney(t, "9", folio.Total)

	minibar, err := f.expenses.List(ctx, ExpenseFilter{Category: "Minibar", GuestID: res.GuestID})
	require.NoError(t, err)
	assert.Len(t, minibar, 2)
}

func TestExpenseAddWaitsForReservationLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	// stands in for a check-out holding the reservation
	unlock, err := f.locker.Lock(ctx, reservationLockKey(res.ID))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.expenses.Add(ctx, AddExpenseInput{
			ReservationID: res.ID, Category: "Bar", Description: "Beer", UnitPrice: money("6"),
		}, 1)
		done <- err
	}()
	select {
	case err := <-done:
		t.Fatalf("charge posted while the reservation was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("charge never posted after the lock was released")
	}
}

func TestExpenseAddRacingCheckOutIsBilledOrRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	var (
		wg     sync.WaitGroup
		added  *models.GuestExpense
		addErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		added, addErr = f.expenses.Add(ctx, AddExpenseInput{
			ReservationID: res.ID, Category: "Minibar", Description: "Water", UnitPrice: money("3"),
		}, 1)
	}()
	go func() {
		defer wg.Done()
		_, _, _ = f.reservations.CheckOut(ctx, res.ID, 1)
	}()
	wg.Wait()

	inv, err := f.invoices.GetByReservation(ctx, res.ID)
	require.NoError(t, err)
	if addErr != nil {
		requireCode(t, addErr, ErrConflict, "invoice_exists")
		assert.Empty(t, inv.ExtraExpenses)
		return
	}

	var stored models.GuestExpense
	f.reload(t, &stored, added.ID)
	assert.Equal(t, models.ExpenseAddedToBill, stored.PaymentStatus)
	require.Len(t, inv.ExtraExpenses, 1)
	assert.Equal(t, added.ID, inv.ExtraExpenses[0].ExpenseID)
}

func TestExpenseEditRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	add := func(desc string) *models.GuestExpense {
		e, err := f.expenses.Add(ctx, AddExpenseInput{
			ReservationID: res.ID, Category: "Laundry", Description: desc, UnitPrice: money("5"),
		}, 1)
		require.NoError(t, err)
		return e
	}
	settled := add("Shirts")
	open := add("Trousers")

	_, err := f.expenses.Update(ctx, settled.ID, UpdateExpenseInput{PaymentStatus: strPtr(models.ExpenseAddedToBill)})
	requireCode(t, err, ErrValidation, "invalid_payment_status")

	paid, err := f.expenses.Update(ctx, settled.ID, UpdateExpenseInput{PaymentStatus: strPtr(models.ExpensePaid)})
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePaid, paid.PaymentStatus)

	_, inv, err := f.reservations.CheckOut(ctx, res.ID, 1)
	require.ErrorIs(t, err, ErrPaymentRequired)
	require.Len(t, inv.ExtraExpenses, 1, "settled charges stay off the bill")
	assert.Equal(t, open.ID, inv.ExtraExpenses[0].ExpenseID)

	_, err = f.expenses.Update(ctx, open.ID, UpdateExpenseInput{UnitPrice: decPtr("1")})
	requireCode(t, err, ErrConflict, "expense_billed")
	requireCode(t, f.expenses.Delete(ctx, open.ID), ErrConflict, "expense_billed")

	_, err = f.expenses.Update(ctx, settled.ID, UpdateExpenseInput{PaymentStatus: strPtr(models.ExpensePending)})
	requireCode(t, err, ErrConflict, "invoice_exists")
	requireCode(t, f.expenses.Delete(ctx, settled.ID), ErrConflict, "invoice_exists")

	var stored models.GuestExpense
	f.reload(t, &stored, open.ID)
	assertMoney(t, "5", stored.TotalAmount)
}

func TestListExpensesByDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := checkedInReservation(t, f)

	for _, at := range []time.Time{
		day(2024, 3, 1).Add(9 * time.Hour),
		day(2024, 3, 1).Add(23*time.Hour + 59*time.Minute),
		day(2024, 3, 2).Add(8 * time.Hour),
	} {
		at := at
		_, err := f.expenses.Add(ctx, AddExpenseInput{
			ReservationID: res.ID, Category: "Restaurant", Description: "Meal",
			UnitPrice: money("20"), ExpenseDate: &at,
		}, 1)
		require.NoError(t, err)
	}

	first, err := f.expenses.List(ctx, ExpenseFilter{Date: timePtr(day(2024, 3, 1))})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].ExpenseDate.After(first[1].ExpenseDate), "newest first")

	second, err := f.expenses.List(ctx, ExpenseFilter{Date: timePtr(day(2024, 3, 2).Add(15 * time.Hour))})
	require.NoError(t, err)
	assert.Len(t, second, 1)

	none, err := f.expenses.List(ctx, ExpenseFilter{Date: timePtr(day(2024, 3, 5))})
	require.NoError(t, err)
	assert.Empty(t, none)
}
