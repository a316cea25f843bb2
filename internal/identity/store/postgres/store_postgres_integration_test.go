//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store/postgres"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user, err := models.NewUser(id.NewUserID(), email, "Test User", "hash", now)
	if err != nil {
		panic(err)
	}
	return user
}

func (s *PostgresStoreSuite) TestSaveAndFindByID() {
	ctx := context.Background()
	user := newTestUser("alice@example.com")

	s.Require().NoError(s.store.Save(ctx, user))

	got, err := s.store.FindByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, got.Email)
	s.Equal(user.FullName, got.FullName)
	s.Nil(got.TrustedUser)
	s.Empty(got.ManagedUsers)
}

func (s *PostgresStoreSuite) TestFindByEmailIsCaseInsensitive() {
	ctx := context.Background()
	user := newTestUser("Alice@Example.com")
	s.Require().NoError(s.store.Save(ctx, user))

	got, err := s.store.FindByEmail(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newTestUser("alice@example.com")))
	err := s.store.Save(ctx, newTestUser("ALICE@example.com"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateRoundTripsRelations() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	designator := newTestUser("alice@example.com")
	trustee := newTestUser("bob@example.com")
	s.Require().NoError(s.store.Save(ctx, designator))
	s.Require().NoError(s.store.Save(ctx, trustee))

	designator.Nominate("bob@example.com", now)
	s.Require().NoError(s.store.Update(ctx, designator))

	trustee.LinkManagedUser(models.ManagedUser{Email: designator.Email, UserID: designator.ID}, now)
	s.Require().NoError(s.store.Update(ctx, trustee))

	s.Require().NoError(trustee.ConfirmManagedUser(designator.ID, now))
	s.Require().NoError(s.store.Update(ctx, trustee))
	s.Require().NoError(designator.ApplyTrusteeConfirmation(trustee.ID, now))
	s.Require().NoError(s.store.Update(ctx, designator))

	gotDesignator, err := s.store.FindByID(ctx, designator.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotDesignator.TrustedUser)
	s.True(gotDesignator.TrustedUser.Confirmed)
	s.Require().NotNil(gotDesignator.TrustedUser.UserID)
	s.Equal(trustee.ID, *gotDesignator.TrustedUser.UserID)

	gotTrustee, err := s.store.FindByID(ctx, trustee.ID)
	s.Require().NoError(err)
	s.Require().Len(gotTrustee.ManagedUsers, 1)
	s.True(gotTrustee.ManagedUsers[0].Confirmed)
	s.Equal(designator.ID, gotTrustee.ManagedUsers[0].UserID)
}

func (s *PostgresStoreSuite) TestUpdateUnknownUser() {
	err := s.store.Update(context.Background(), newTestUser("ghost@example.com"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindUnknownUser() {
	_, err := s.store.FindByID(context.Background(), id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
