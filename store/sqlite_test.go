package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/parish-forms/database"
	"github.com/mbolis/parish-forms/model"
)

func openStore(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var epoch = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func rsvp(id string, createdAt time.Time) *model.FormDefinition {
	cover := "https://cdn.example.org/cover.jpg"
	return &model.FormDefinition{
		ID:          id,
		Title:       "RSVP",
		Description: "Parish dinner",
		CoverImage:  &cover,
		Fields: []model.FieldDefinition{
			{ID: "f1", Type: model.FieldText, Label: "Name", Required: true},
			{ID: "f2", Type: model.FieldSingleSelect, Label: "Meal", Options: []string{"Fish", "Veg"}},
			{ID: "f3", Type: model.FieldDate, Label: "Arrival"},
		},
		Active:    true,
		CreatedAt: createdAt,
	}
}

func TestCreateAndGetForm(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	want := rsvp("frm-1", epoch)
	require.NoError(t, s.CreateForm(ctx, want))

	got, err := s.GetForm(ctx, "frm-1")
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	require.NotNil(t, got.CoverImage)
	assert.Equal(t, *want.CoverImage, *got.CoverImage)
	assert.True(t, got.Active)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.Fields, got.Fields)
}

func TestGetForm_NotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.GetForm(context.Background(), "frm-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.FormStatus(context.Background(), "frm-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateForm_DuplicateIDLeavesNothing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateForm(ctx, rsvp("frm-1", epoch)))

	dup := rsvp("frm-1", epoch)
	dup.Title = "Other"
	err := s.CreateForm(ctx, dup)
	var perr *model.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "db.insert_form", perr.Op)

	got, err := s.GetForm(ctx, "frm-1")
	require.NoError(t, err)
	assert.Equal(t, "RSVP", got.Title)
}

func TestCreateForm_RejectsInvalidSchema(t *testing.T) {
	s := openStore(t)
	def := rsvp("frm-1", epoch)
	def.Fields[1].ID = "f1"
	assert.ErrorIs(t, s.CreateForm(context.Background(), def), model.ErrInvalidSchema)
}

func TestCreateForm_RollsBackOnFieldFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO form \\(").WillReturnResult(sqlmock.NewResult(1, 1))
	prep := mock.ExpectPrepare("INSERT INTO form_field")
	prep.ExpectExec().
		WithArgs("frm-1", "f1", 0, "text", "Name", true, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("frm-1", "f2", 1, "single-select", "Meal", false, `["Fish","Veg"]`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.CreateForm(context.Background(), rsvp("frm-1", epoch))
	var perr *model.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "db.insert_form.fields.insert", perr.Op)
}

func TestListForms_NewestFirstWithCounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateForm(ctx, rsvp("frm-old", epoch)))
	require.NoError(t, s.CreateForm(ctx, rsvp("frm-new", epoch.Add(time.Hour))))
	require.NoError(t, s.CreateResponse(ctx, &model.FormResponse{
		ID: "r1", FormID: "frm-old", Data: map[string]string{"f1": "Ana"}, CreatedAt: epoch,
	}))

	forms, err := s.ListForms(ctx)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "frm-new", forms[0].ID)
	assert.Equal(t, 0, forms[0].ResponseCount)
	assert.Equal(t, "frm-old", forms[1].ID)
	assert.Equal(t, 1, forms[1].ResponseCount)
	assert.Len(t, forms[1].Fields, 3)
}

func TestListForms_CountFailureDegradesToZero(t *testing.T) {
	db, mock := newMockDB(t)
	s := New(db)

	formColumns := []string{"id", "title", "description", "cover_image", "active", "created_at"}
	mock.ExpectQuery("SELECT .+ FROM form\\s+ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(formColumns).
			AddRow("frm-2", "Retreat", "", nil, true, epoch.Add(time.Hour)).
			AddRow("frm-1", "RSVP", "", nil, false, epoch))
	mock.ExpectQuery("SELECT .+ FROM form_field").
		WillReturnRows(sqlmock.NewRows([]string{"form_id", "id", "type", "label", "required", "options"}).
			AddRow("frm-1", "f1", "text", "Name", true, ""))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM form_response").WithArgs("frm-2").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM form_response").WithArgs("frm-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	forms, err := s.ListForms(context.Background())
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, 0, forms[0].ResponseCount)
	assert.Equal(t, 3, forms[1].ResponseCount)
	assert.Empty(t, forms[0].Fields)
	assert.Len(t, forms[1].Fields, 1)
}

func TestSetFormActive(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateForm(ctx, rsvp("frm-1", epoch)))

	require.NoError(t, s.SetFormActive(ctx, "frm-1", false))
	active, err := s.FormStatus(ctx, "frm-1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, s.SetFormActive(ctx, "frm-1", true))
	active, err = s.FormStatus(ctx, "frm-1")
	require.NoError(t, err)
	assert.True(t, active)

	assert.ErrorIs(t, s.SetFormActive(ctx, "frm-missing", true), model.ErrNotFound)
}

func TestDeleteForm_CascadesToResponses(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateForm(ctx, rsvp("frm-1", epoch)))
	require.NoError(t, s.CreateResponse(ctx, &model.FormResponse{
		ID: "r1", FormID: "frm-1", Data: map[string]string{"f1": "Ana"}, CreatedAt: epoch,
	}))

	require.NoError(t, s.DeleteForm(ctx, "frm-1"))

	_, err := s.GetForm(ctx, "frm-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	n, err := s.CountResponses(ctx, "frm-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, s.DeleteForm(ctx, "frm-1"), model.ErrNotFound)
}

func TestListResponses_OldestFirstStable(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateForm(ctx, rsvp("frm-1", epoch)))

	// r2 is older than r1; r3 shares r1's timestamp and was inserted later
	for _, r := range []model.FormResponse{
		{ID: "r1", FormID: "frm-1", Data: map[string]string{"f1": "Ana"}, CreatedAt: epoch.Add(2 * time.Minute)},
		{ID: "r2", FormID: "frm-1", Data: map[string]string{"f1": "Bea"}, CreatedAt: epoch.Add(time.Minute)},
		{ID: "r3", FormID: "frm-1", Data: map[string]string{}, CreatedAt: epoch.Add(2 * time.Minute)},
	} {
		r := r
		require.NoError(t, s.CreateResponse(ctx, &r))
	}

	responses, err := s.ListResponses(ctx, "frm-1")
	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.Equal(t, "r2", responses[0].ID)
	assert.Equal(t, "r1", responses[1].ID)
	assert.Equal(t, "r3", responses[2].ID)
	assert.Equal(t, map[string]string{"f1": "Bea"}, responses[0].Data)
}

func TestCreateResponse_UnknownFormFails(t *testing.T) {
	s := openStore(t)
	err := s.CreateResponse(context.Background(), &model.FormResponse{
		ID: "r1", FormID: "frm-missing", Data: map[string]string{}, CreatedAt: epoch,
	})
	var perr *model.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestPutUser_Upserts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutUser(ctx, "admin", []byte("hash-1")))
	require.NoError(t, s.PutUser(ctx, "admin", []byte("hash-2")))

	var hash []byte
	require.NoError(t, s.db.QueryRow(`SELECT password_hash FROM user WHERE username = ?`, "admin").Scan(&hash))
	assert.Equal(t, "hash-2", string(hash))
}
