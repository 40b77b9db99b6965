package cs4teachers

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newStoreFromDB(db), mock
}

func TestSlugExistsQueries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		scope SlugScope
		mock  func(mock sqlmock.Sqlmock)
		want  bool
	}{
		{
			name:  "global scope",
			scope: SlugScope{Kind: KindSeries},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM series WHERE slug = ?)`)).
					WithArgs("cs4t").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: true,
		},
		{
			name:  "session scope includes event",
			scope: SlugScope{Kind: KindSession, ParentID: 42},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM sessions WHERE slug = ? AND event_id = ?)`)).
					WithArgs("cs4t", int64(42)).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.mock(mock)
			got, err := s.SlugExists(ctx, tt.scope, "cs4t")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlugExistsUnknownScope(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.SlugExists(context.Background(), SlugScope{Kind: KindSponsor}, "acme")
	assert.Error(t, err)
}

func TestCreateLocationRollsBackOnSlugError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM locations WHERE slug = ?)`)).
		WithArgs("lab").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	l := Location{Name: "Lab", Address: "Science Rd", Geolocation: "-43.5,172.5"}
	err := s.CreateLocation(context.Background(), &l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Zero(t, l.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocationInsertsWithAssignedSlug(t *testing.T) {
	s, mock := newMockStore(t)
	exists := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM locations WHERE slug = ?)`)
	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs("lab").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(exists).WithArgs("lab-2").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs("lab-2", "Lab", "", "Science Rd", "-43.5,172.5").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	l := Location{Name: "Lab", Address: "Science Rd", Geolocation: "-43.5, 172.5"}
	require.NoError(t, s.CreateLocation(context.Background(), &l))
	assert.Equal(t, int64(7), l.ID)
	assert.Equal(t, "lab-2", l.Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTranslatesForeignKeyFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM locations WHERE id = ?`)).
		WithArgs(int64(3)).
		WillReturnError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"))

	err := s.DeleteLocation(context.Background(), 3)
	assert.ErrorIs(t, err, ErrInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE sponsors SET`).
		WithArgs("Acme", "https://acme.example/", "", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateSponsor(context.Background(), &Sponsor{ID: 99, Name: "Acme", URL: "https://acme.example/"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSponsorDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO sponsors`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: sponsors.name (2067)"))

	err := s.CreateSponsor(context.Background(), &Sponsor{Name: "Acme", URL: "https://acme.example/"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidEntityNeverReachesDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	err := s.CreateSponsor(context.Background(), &Sponsor{Name: "", URL: "nope"})
	_, ok := IsValidation(err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
