package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/opsledger/internal/adapter/repository/redis"
	"github.com/iho/opsledger/internal/usecase/mocks"
)

func postWithKey(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyMiddleware_ReplaysSuccessfulResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw := NewIdempotencyMiddleware(redis.NewIdempotencyStore(client), time.Hour, zerolog.Nop())

	var calls int32
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"flow_id":"flow-1"}`))
	}))

	first := postWithKey(t, h, "/api/v1/rent-payments", "key-1")
	second := postWithKey(t, h, "/api/v1/rent-payments", "key-1")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayHeader))
	assert.JSONEq(t, `{"flow_id":"flow-1"}`, second.Body.String())

	// Same key on another route is a different request.
	postWithKey(t, h, "/api/v1/transfers", "key-1")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, 0, zerolog.Nop())

	status := http.StatusUnprocessableEntity
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rr := postWithKey(t, h, "/api/v1/transfers", "key-fail")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	_, held := store.Get("POST:/api/v1/transfers:key-fail")
	assert.False(t, held, "failed responses must not keep the key")

	status = http.StatusCreated
	rr = postWithKey(t, h, "/api/v1/transfers", "key-fail")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, rr.Header().Get(IdempotencyReplayHeader))
}

func TestIdempotencyMiddleware_InProgressConflict(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	_, _, err := store.CheckAndSet(context.Background(), "POST:/api/v1/employees:key-busy", nil, time.Minute)
	require.NoError(t, err)

	called := false
	h := NewIdempotencyMiddleware(store, 0, zerolog.Nop()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := postWithKey(t, h, "/api/v1/employees", "key-busy")

	assert.False(t, called)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestIdempotencyMiddleware_StoreErrors(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		return false, nil, context.DeadlineExceeded
	}

	called := false
	h := NewIdempotencyMiddleware(store, 0, zerolog.Nop()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := postWithKey(t, h, "/api/v1/transfers", "key-err")

	assert.False(t, called, "handler should not be called when store errors")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestIdempotencyMiddleware_PassThrough(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		t.Fatalf("store should not be consulted")
		return false, nil, nil
	}

	var calls int
	h := NewIdempotencyMiddleware(store, 0, zerolog.Nop()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	postWithKey(t, h, "/api/v1/transfers", "")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/a/balance", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ReleasesAfterPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw := NewIdempotencyMiddleware(redis.NewIdempotencyStore(client), 0, zerolog.Nop())

	var calls int32
	h := Recovery(zerolog.Nop())(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("ledger write failed")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"flow_id":"flow-2"}`))
	})))

	first := postWithKey(t, h, "/api/v1/rent-payments", "key-panic")
	require.Equal(t, http.StatusInternalServerError, first.Code)
	assert.False(t, mr.Exists("opsledger:idempotency:POST:/api/v1/rent-payments:key-panic"), "panicking request must not hold the key")

	second := postWithKey(t, h, "/api/v1/rent-payments", "key-panic")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(IdempotencyReplayHeader))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
