package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SIMPLE/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *redisCache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	c := NewRedisCache(NewClientWithUniversal(db, logging.NewNopLogger()), logging.NewNopLogger(),
		WithPrefix("test:"),
		WithDefaultTTL(10*time.Minute),
	).(*redisCache)
	c.jitter = func(d time.Duration) time.Duration { return d }
	s.cache = c
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type expertSet struct {
	Names []string `json:"names"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	s.mock.ExpectGet("test:k1").SetVal(`{"names":["Ana","Luis"]}`)

	var dest expertSet
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.Require().NoError(err)
	s.Equal([]string{"Ana", "Luis"}, dest.Names)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest expertSet
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_NullMarkerIsMiss() {
	s.mock.ExpectGet("test:k1").SetVal(nullMarker)

	var dest expertSet
	s.ErrorIs(s.cache.Get(context.Background(), "k1", &dest), ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:k1").SetErr(errors.New("connection reset"))

	var dest expertSet
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:k1").SetVal("{not json")

	var dest expertSet
	err := s.cache.Get(context.Background(), "k1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	s.mock.ExpectSet("test:k1", []byte(`{"names":["Ana"]}`), 10*time.Minute).SetVal("OK")

	err := s.cache.Set(context.Background(), "k1", expertSet{Names: []string{"Ana"}}, 0)
	s.NoError(err)
}

func (s *CacheTestSuite) TestSet_Unserializable() {
	err := s.cache.Set(context.Background(), "k1", make(chan int), time.Minute)
	s.ErrorIs(err, ErrSerializationFailed)
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:k1").SetVal(1)
	ok, err := s.cache.Exists(context.Background(), "k1")
	s.NoError(err)
	s.True(ok)
}

func (s *CacheTestSuite) TestGetOrSet_Hit() {
	s.mock.ExpectGet("test:k1").SetVal(`{"names":["Ana"]}`)

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})
	s.NoError(err)
	s.Equal([]string{"Ana"}, dest.Names)
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndStores() {
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", []byte(`{"names":["Luis"]}`), time.Minute).SetVal("OK")

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return expertSet{Names: []string{"Luis"}}, nil
	})
	s.NoError(err)
	s.Equal([]string{"Luis"}, dest.Names)
}

func (s *CacheTestSuite) TestGetOrSet_NilResultCachesMarker() {
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", nullMarker, 30*time.Second).SetVal("OK")

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetOrSet_NullCacheTTLOption() {
	WithNullCacheTTL(5 * time.Second)(s.cache)
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", nullMarker, 5*time.Second).SetVal("OK")

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:k1").RedisNil()
	boom := errors.New("db down")

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	s.ErrorIs(err, boom)
}

func (s *CacheTestSuite) TestGetOrSet_BackendErrorFallsBackToLoader() {
	s.mock.ExpectGet("test:k1").SetErr(errors.New("timeout"))
	s.mock.ExpectSet("test:k1", []byte(`{"names":["Eva"]}`), time.Minute).SetErr(errors.New("timeout"))

	var dest expertSet
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return expertSet{Names: []string{"Eva"}}, nil
	})
	s.NoError(err)
	s.Equal([]string{"Eva"}, dest.Names)
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:specialists:*", 100).SetVal([]string{"test:specialists:a"}, 7)
	s.mock.ExpectDel("test:specialists:a").SetVal(1)
	s.mock.ExpectScan(7, "test:specialists:*", 100).SetVal([]string{"test:specialists:b", "test:specialists:c"}, 0)
	s.mock.ExpectDel("test:specialists:b", "test:specialists:c").SetVal(2)

	n, err := s.cache.DeleteByPrefix(context.Background(), "specialists:")
	s.NoError(err)
	s.Equal(int64(3), n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitterTTL(0))
	for i := 0; i < 100; i++ {
		d := jitterTTL(10 * time.Minute)
		assert.GreaterOrEqual(t, d, 9*time.Minute)
		assert.LessOrEqual(t, d, 11*time.Minute)
	}
}

func TestGetOrSet_SecondCallHitsCache(t *testing.T) {
	_, client := newMiniredisClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger(), WithPrefix("it:"))
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return expertSet{Names: []string{"Ana"}}, nil
	}

	for i := 0; i < 3; i++ {
		var dest expertSet
		require.NoError(t, cache.GetOrSet(ctx, "k", &dest, time.Minute, loader))
		assert.Equal(t, []string{"Ana"}, dest.Names)
	}
	assert.Equal(t, 1, calls)
	assert.NoError(t, cache.Ping(ctx))
}
