package services

import (
	"context"
	"testing"

	"hotel-pms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomNumbers(rooms []models.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.RoomNumber)
	}
	return out
}

func TestFindAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	booked := f.room(t, "101", 1000)
	f.room(t, "102", 1000)
	cleaning := f.room(t, "103", 1000)
	maintenance := f.room(t, "104", 1000)
	suite := &models.Room{RoomNumber: "301", RoomType: "Suite", Floor: 3, BasePrice: money("5000"), Capacity: 4}
	require.NoError(t, f.rooms.Create(ctx, suite))

	_, err := f.rooms.UpdateStatus(ctx, cleaning.ID, RoomStatusUpdate{Status: strPtr(models.RoomCleaning)})
	require.NoError(t, err)
	_, err = f.rooms.UpdateStatus(ctx, maintenance.ID, RoomStatusUpdate{Status: strPtr(models.RoomMaintenance)})
	require.NoError(t, err)

	guest := f.guest(t, "P-1")
	f.book(t, guest.ID, uintPtr(booked.ID), day(2024, 3, 1), day(2024, 3, 4))

	rooms, err := f.rooms.FindAvailable(ctx, day(2024, 3, 3), day(2024, 3, 5), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"102", "103", "301"}, roomNumbers(rooms))

	rooms, err = f.rooms.FindAvailable(ctx, day(2024, 3, 3), day(2024, 3, 5), "Suite")
	require.NoError(t, err)
	assert.Equal(t, []string{"301"}, roomNumbers(rooms))

	// the booked room stays Reserved, so later dates do not offer it either
	rooms, err = f.rooms.FindAvailable(ctx, day(2024, 3, 10), day(2024, 3, 12), "Double")
	require.NoError(t, err)
	assert.Equal(t, []string{"102", "103"}, roomNumbers(rooms))

	_, err = f.rooms.FindAvailable(ctx, day(2024, 3, 5), day(2024, 3, 5), "")
	requireCode(t, err, ErrValidation, "invalid_date_range")
}

func TestRoomStatusUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	room := f.room(t, "101", 1000)

	_, err := f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{})
	requireCode(t, err, ErrValidation, "empty_status_update")

	_, err = f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{Status: strPtr(models.RoomOccupied)})
	requireCode(t, err, ErrValidation, "invalid_room_status")

	_, err = f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{Status: strPtr("Haunted")})
	requireCode(t, err, ErrValidation, "invalid_room_status")

	_, err = f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{CleaningStatus: strPtr("Sparkling")})
	requireCode(t, err, ErrValidation, "invalid_cleaning_status")

	updated, err := f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{
		CleaningStatus:   strPtr(models.CleaningClean),
		MaintenanceNotes: strPtr("new curtains"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.LastCleanedAt)
	assert.Equal(t, "new curtains", updated.MaintenanceNotes)

	_, err = f.rooms.UpdateStatus(ctx, 999, RoomStatusUpdate{Status: strPtr(models.RoomMaintenance)})
	requireCode(t, err, ErrNotFound, "room_not_found")

	f.book(t, f.guest(t, "P-1").ID, uintPtr(room.ID), day(2024, 3, 1), day(2024, 3, 2))
	_, err = f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{Status: strPtr(models.RoomMaintenance)})
	requireCode(t, err, ErrConflict, "room_in_use")

	// housekeeping may still work a held room
	updated, err = f.rooms.UpdateStatus(ctx, room.ID, RoomStatusUpdate{CleaningStatus: strPtr(models.CleaningInspected)})
	require.NoError(t, err)
	assert.Equal(t, models.RoomReserved, updated.Status)
	assert.Equal(t, models.CleaningInspected, updated.CleaningStatus)
}

func TestHousekeepingBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	set := func(number, status, cleaning string) {
		r := f.room(t, number, 1000)
		_, err := f.rooms.UpdateStatus(ctx, r.ID, RoomStatusUpdate{Status: strPtr(status), CleaningStatus: strPtr(cleaning)})
		require.NoError(t, err)
	}
	set("101", models.RoomCleaning, models.CleaningDirty)
	set("102", models.RoomCleaning, models.CleaningPickup)
	set("103", models.RoomCleaning, models.CleaningClean)
	set("104", models.RoomCleaning, models.CleaningInspected)
	set("105", models.RoomAvailable, models.CleaningInspected)
	set("106", models.RoomMaintenance, models.CleaningClean)

	board, err := f.rooms.HousekeepingBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, roomNumbers(board.Dirty))
	assert.Equal(t, []string{"102"}, roomNumbers(board.Pickup))
	assert.Equal(t, []string{"103"}, roomNumbers(board.Inspection))
	assert.Equal(t, []string{"104"}, roomNumbers(board.Inspected))
	assert.Equal(t, []string{"105"}, roomNumbers(board.Available))
}

func TestRoomCreateAndRetire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	room := f.room(t, "101", 1000)
	assert.Equal(t, models.RoomAvailable, room.Status)
	assert.Equal(t, models.CleaningClean, room.CleaningStatus)
	assert.True(t, room.IsActive)

	err := f.rooms.Create(ctx, &models.Room{RoomNumber: " 101 ", RoomType: "Single", BasePrice: money("10"), Capacity: 1})
	requireCode(t, err, ErrConflict, "room_number_taken")

	err = f.rooms.Create(ctx, &models.Room{RoomNumber: "102", RoomType: "Single", BasePrice: money("10"), Capacity: 1, Status: models.RoomOccupied})
	requireCode(t, err, ErrValidation, "invalid_room_status")

	err = f.rooms.Create(ctx, &models.Room{RoomNumber: "102", RoomType: "Cabin", BasePrice: money("10"), Capacity: 1})
	requireCode(t, err, ErrValidation, "invalid_room_type")

	err = f.rooms.Create(ctx, &models.Room{RoomNumber: "102", RoomType: "Single", BasePrice: money("10")})
	requireCode(t, err, ErrValidation, "invalid_capacity")

	other := f.room(t, "102", 1000)
	_, err = f.rooms.Update(ctx, other.ID, RoomUpdate{RoomNumber: strPtr("101")})
	requireCode(t, err, ErrConflict, "room_number_taken")

	updated, err := f.rooms.Update(ctx, other.ID, RoomUpdate{BasePrice: decPtr("1250.50"), Floor: intPtr(2)})
	require.NoError(t, err)
	assertMoney(t, "1250.50", updated.BasePrice)
	assert.Equal(t, 2, updated.Floor)

	res := f.book(t, f.guest(t, "P-1").ID, uintPtr(room.ID), day(2024, 3, 1), day(2024, 3, 2))
	requireCode(t, f.rooms.Delete(ctx, room.ID), ErrConflict, "room_in_use")

	_, err = f.reservations.Cancel(ctx, res.ID, CancelReservationInput{Reason: "plans changed"}, 1)
	require.NoError(t, err)
	require.NoError(t, f.rooms.Delete(ctx, room.ID))

	active, err := f.rooms.List(ctx, RoomFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, roomNumbers(active))

	all, err := f.rooms.List(ctx, RoomFilter{IncludeRetired: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	floor := 2
	onFloor, err := f.rooms.List(ctx, RoomFilter{Floor: &floor})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, roomNumbers(onFloor))

	_, err = f.reservations.Create(ctx, CreateReservationInput{
		GuestID: f.guest(t, "P-2").ID, RoomID: uintPtr(room.ID),
		CheckInDate: day(2024, 4, 1), CheckOutDate: day(2024, 4, 2),
	}, 1)
	requireCode(t, err, ErrValidation, "room_retired")
}
