//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/ledger"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/testutil/containers"
)

type RedisLedgerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	ledger *ledger.RedisLedger
}

func TestRedisLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLedgerSuite))
}

func (s *RedisLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.ledger = ledger.NewRedisLedger(s.redis.Client)
}

func (s *RedisLedgerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLedgerSuite) TestFirstClaimSucceeds() {
	s.NoError(s.ledger.Mark(context.Background(), "jti-1", id.NewUserID()))
}

func (s *RedisLedgerSuite) TestSameUserMayReclaim() {
	ctx := context.Background()
	user := id.NewUserID()
	s.Require().NoError(s.ledger.Mark(ctx, "jti-1", user))
	s.NoError(s.ledger.Mark(ctx, "jti-1", user))
}

func (s *RedisLedgerSuite) TestDifferentUserIsRefused() {
	ctx := context.Background()
	s.Require().NoError(s.ledger.Mark(ctx, "jti-1", id.NewUserID()))
	s.ErrorIs(s.ledger.Mark(ctx, "jti-1", id.NewUserID()), sentinel.ErrAlreadyUsed)
}

// TestConcurrentClaims verifies that many racing redeemers for the same jti
// produce exactly one winner.
func (s *RedisLedgerSuite) TestConcurrentClaims() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var refusedCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ledger.Mark(ctx, "jti-contested", id.NewUserID())
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				refusedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), refusedCount.Load())
}
