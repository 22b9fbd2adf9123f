package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SIMPLE/pkg/errors"
)

var specialistRowColumns = []string{"id", "name", "email", "expertise", "rating", "available"}

type SpecialistRepoTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo *SpecialistRepo
}

func (s *SpecialistRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.repo = NewPostgresSpecialistRepo(postgres.NewConnectionWithDB(s.db, nil), logging.NewNopLogger(), nil)
}

func (s *SpecialistRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *SpecialistRepoTestSuite) TestListByExpertise() {
	s.mock.ExpectQuery(`ORDER BY m.covered \+ CASE WHEN m.covers_weakest THEN 1 ELSE 0 END DESC, m.rating DESC`).
		WithArgs(`["red","accesos"]`, 5).
		WillReturnRows(sqlmock.NewRows(specialistRowColumns).
			AddRow("s1", "Ana", "ana@example.com", []byte(`["Red"]`), 4.8, true).
			AddRow("s2", "Bea", "bea@example.com", []byte(`["accesos","Nube"]`), 4.2, true))

	got, err := s.repo.ListByExpertise(context.Background(), []string{"Red", "Accesos"}, 5)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Ana", got[0].Name)
	s.Equal([]string{"accesos", "Nube"}, got[1].Expertise)
	s.InDelta(4.2, got[1].Rating, 1e-9)
}

func (s *SpecialistRepoTestSuite) TestListByExpertise_EmptyCategories() {
	got, err := s.repo.ListByExpertise(context.Background(), nil, 5)
	s.NoError(err)
	s.Empty(got)
}

func (s *SpecialistRepoTestSuite) TestListByExpertise_DefaultLimitAndFailure() {
	s.mock.ExpectQuery(`FROM specialists`).
		WithArgs(`["red"]`, 50).
		WillReturnError(errors.New("conn reset"))

	_, err := s.repo.ListByExpertise(context.Background(), []string{"Red"}, 0)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeSpecialistLookupFailed))
}

func (s *SpecialistRepoTestSuite) TestListByExpertise_FoldsCategories() {
	decomposed := "Proteccio\u0301n de datos"
	s.mock.ExpectQuery(`expertise_keys @> jsonb_build_array`).
		WithArgs(`["protección de datos"]`, 10).
		WillReturnRows(sqlmock.NewRows(specialistRowColumns).
			AddRow("s1", "Ana", "ana@example.com", []byte(`["Protección de datos"]`), 4.8, true))

	got, err := s.repo.ListByExpertise(context.Background(), []string{decomposed, "PROTECCIÓN DE DATOS"}, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.True(got[0].Covers(decomposed))
}

func (s *SpecialistRepoTestSuite) TestGetByID() {
	s.mock.ExpectQuery(`FROM specialists WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(specialistRowColumns).
			AddRow("s1", "Ana", "ana@example.com", []byte(`["Red"]`), 4.8, false))

	got, err := s.repo.GetByID(context.Background(), "s1")
	s.Require().NoError(err)
	s.False(got.Available)

	s.mock.ExpectQuery(`FROM specialists WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = s.repo.GetByID(context.Background(), "nope")
	s.ErrorIs(err, specialist.ErrNotFound)
}

func (s *SpecialistRepoTestSuite) TestUpsert() {
	sp := &specialist.Specialist{ID: "s1", Name: "Ana", Email: "ana@example.com", Expertise: []string{"Red"}, Rating: 4.5, Available: true}

	s.mock.ExpectExec(`INSERT INTO specialists .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("s1", "Ana", "ana@example.com", []byte(`["Red"]`), 4.5, true, []byte(`["red"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.repo.Upsert(context.Background(), sp))

	s.mock.ExpectExec(`INSERT INTO specialists`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "specialists_email_key"})
	err := s.repo.Upsert(context.Background(), sp)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func (s *SpecialistRepoTestSuite) TestUpsert_ComposesDecomposedExpertise() {
	sp := &specialist.Specialist{
		ID: "s2", Name: "Bea", Email: "bea@example.com", Rating: 4, Available: true,
		Expertise: []string{" Proteccio\u0301n de datos", "protección de DATOS", "Red"},
	}

	s.mock.ExpectExec(`INSERT INTO specialists`).
		WithArgs("s2", "Bea", "bea@example.com",
			[]byte(`["Protección de datos","Red"]`), 4.0, true,
			[]byte(`["protección de datos","red"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.repo.Upsert(context.Background(), sp))
	s.Len(sp.Expertise, 3, "caller's value is left untouched")
}

func TestSpecialistRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SpecialistRepoTestSuite))
}
