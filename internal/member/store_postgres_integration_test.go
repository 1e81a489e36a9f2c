//go:build integration

package member_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/member"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/testutil/containers"
)

type PostgresMemberSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *member.PostgresStore
}

func TestPostgresMemberSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresMemberSuite))
}

func (s *PostgresMemberSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), member.Schema)
	s.store = member.NewPostgres(s.postgres.DB)
}

func (s *PostgresMemberSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "members")
	s.Require().NoError(err)
}

func (s *PostgresMemberSuite) member(userID, memberID, phone string) member.Member {
	return member.Member{
		UserID:       userID,
		MemberID:     memberID,
		PhoneNumber:  phone,
		Title:        "Ms",
		Gender:       "Female",
		Surname:      "Sharma",
		FirstName:    "Priya",
		FullName:     "Ms Priya Sharma",
		City:         "Delhi",
		DateOfBirth:  "1990-05-12",
		Organization: member.DefaultOrganization,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresMemberSuite) TestSaveAndFind() {
	ctx := context.Background()
	m := s.member("user-1", "DF00000125", "+919876543210")

	s.Require().NoError(s.store.Save(ctx, m))

	found, err := s.store.FindByUserID(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(m.MemberID, found.MemberID)
	s.Equal(m.FullName, found.FullName)
	s.Equal(m.DateOfBirth, found.DateOfBirth)

	_, err = s.store.FindByUserID(ctx, "missing")
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresMemberSuite) TestUniqueViolationsMapToConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.member("user-1", "DF00000125", "+919876543210")))

	err := s.store.Save(ctx, s.member("user-2", "DF00000225", "+919876543210"))
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict), "duplicate phone must conflict")

	err = s.store.Save(ctx, s.member("user-1", "DF00000325", "+912222222222"))
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict), "duplicate user must conflict")
}

func (s *PostgresMemberSuite) TestExistsByPhone() {
	ctx := context.Background()

	exists, err := s.store.ExistsByPhone(ctx, "+919876543210")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.store.Save(ctx, s.member("user-1", "DF00000125", "+919876543210")))

	exists, err = s.store.ExistsByPhone(ctx, "+919876543210")
	s.Require().NoError(err)
	s.True(exists)
}
