package repository_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/trainer-scheduler/internal/persistence"
	"github.com/example/trainer-scheduler/internal/repository"
	"github.com/example/trainer-scheduler/internal/testfixtures"
)

func newBackend(t *testing.T) (*repository.Backend, *testfixtures.SQLiteHarness) {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	return testfixtures.NewServiceFactory().NewBackend(harness.Events, harness.Trainers), harness
}

func TestBackend_CreateEventDefaults(t *testing.T) {
	backend, _ := newBackend(t)

	rec, err := backend.CreateEvent(context.Background(), repository.EventPayload{
		Title:     "  Intake  ",
		StartTime: testfixtures.Monday(10, 0),
		EndTime:   testfixtures.Monday(11, 0),
		TrainerID: "T1",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "Intake", rec.Title)
	assert.Equal(t, "training", rec.Type)
	assert.Equal(t, "scheduled", rec.Status)
	assert.True(t, rec.CreatedAt.Equal(testfixtures.ReferenceTime()))
}

func TestBackend_RejectsInvalidPayloads(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	_, err := backend.CreateEvent(ctx, repository.EventPayload{
		Title:     "Yoga",
		Type:      "yoga",
		StartTime: testfixtures.Monday(10, 0),
		EndTime:   testfixtures.Monday(11, 0),
		TrainerID: "T1",
	})
	assert.ErrorIs(t, err, repository.ErrInvalidPayload)
	assert.Equal(t, http.StatusBadRequest, repository.StatusFor(err))

	_, err = backend.PutTrainer(ctx, "T1", repository.TrainerPayload{
		Name:         "Alex",
		WorkingHours: &repository.WorkingHoursRecord{Start: "9am", End: "18:00", Days: []int{1}},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidPayload)

	_, err = backend.PutTrainer(ctx, "T1", repository.TrainerPayload{
		Name:         "Alex",
		WorkingHours: &repository.WorkingHoursRecord{Start: "18:00", End: "09:00", Days: []int{1}},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidPayload)

	_, err = backend.PutTrainer(ctx, "T1", repository.TrainerPayload{
		Name:         "Alex",
		WorkingHours: &repository.WorkingHoursRecord{Start: "09:00", End: "18:00", Days: []int{7}},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidPayload)
}

func TestBackend_PatchEvent(t *testing.T) {
	backend, harness := newBackend(t)
	ctx := context.Background()
	harness.SeedEvents(t, testfixtures.NewEventFixture(testfixtures.WithEventID("E1"), testfixtures.WithEventClient("C1", "Jordan")))

	end := testfixtures.Monday(12, 0)
	empty := ""
	rec, err := backend.PatchEvent(ctx, "E1", repository.EventPatch{EndTime: &end, ClientName: &empty})
	require.NoError(t, err)
	assert.True(t, rec.EndTime.Equal(end))
	assert.Empty(t, rec.ClientName)
	assert.Equal(t, "C1", rec.ClientID)

	early := testfixtures.Monday(9, 0)
	_, err = backend.PatchEvent(ctx, "E1", repository.EventPatch{EndTime: &early})
	assert.ErrorIs(t, err, repository.ErrInvalidPayload)

	_, err = backend.PatchEvent(ctx, "missing", repository.EventPatch{EndTime: &end})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, repository.StatusFor(err))
}

func TestBackend_PutTrainerNormalizesDays(t *testing.T) {
	backend, _ := newBackend(t)

	rec, err := backend.PutTrainer(context.Background(), "T1", repository.TrainerPayload{
		Name:         "Alex",
		WorkingHours: &repository.WorkingHoursRecord{Start: "07:00", End: "15:00", Days: []int{5, 1, 5, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, rec.WorkingHours.Days)

	rec, err = backend.PutTrainer(context.Background(), "T2", repository.TrainerPayload{Name: "Kim"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.WorkingHours.Days)
}

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":        {err: nil, want: http.StatusOK},
		"invalid":    {err: repository.ErrInvalidPayload, want: http.StatusBadRequest},
		"constraint": {err: persistence.ErrConstraintViolation, want: http.StatusBadRequest},
		"missing":    {err: persistence.ErrNotFound, want: http.StatusNotFound},
		"duplicate":  {err: persistence.ErrDuplicate, want: http.StatusConflict},
		"other":      {err: errors.New("disk full"), want: http.StatusInternalServerError},
		"deadline":   {err: context.DeadlineExceeded, want: http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, repository.StatusFor(tc.err))
		})
	}
}
