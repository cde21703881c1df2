package blob_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monsterbattle/internal/storage/blob"
)

// fakeKV is an in-memory blob.KV built from go-redis result constructors.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func TestAddress(t *testing.T) {
	// Keccak-256 of the empty string.
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", blob.Address(nil))
	assert.True(t, blob.ValidAddress(blob.Address([]byte("x"))))
	assert.False(t, blob.ValidAddress("0x1234"))
	assert.False(t, blob.ValidAddress("zz"+blob.Address([]byte("x"))[2:]))
}

func TestRedisStore_UploadFetch(t *testing.T) {
	kv := newFakeKV()
	s := blob.NewRedisStore(kv, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	addr, err := s.Upload(ctx, []byte("png-bytes"), "InfernoDragon.png")
	require.NoError(t, err)
	assert.Equal(t, blob.Address([]byte("png-bytes")), addr)
	assert.Equal(t, time.Hour, kv.ttls["blob:"+addr])

	data, err := s.Fetch(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	name, err := s.Filename(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "InfernoDragon.png", name)

	_, err = s.Fetch(ctx, blob.Address([]byte("other")))
	assert.True(t, errors.Is(err, blob.ErrNotFound))
	assert.NoError(t, s.Health(ctx, time.Second))
}

func TestRedisStore_UploadFailures(t *testing.T) {
	kv := newFakeKV()
	s := blob.NewRedisStore(kv, 0, zaptest.NewLogger(t))

	_, err := s.Upload(context.Background(), nil, "a.png")
	assert.True(t, errors.Is(err, blob.ErrUpload))

	kv.failSet = errors.New("READONLY")
	_, err = s.Upload(context.Background(), []byte("x"), "a.png")
	assert.True(t, errors.Is(err, blob.ErrUpload))
}

func TestMemory_RoundTrip_Property(t *testing.T) {
	m := blob.NewMemory()
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(rt, "data")
		addr, err := m.Upload(context.Background(), data, "f")
		if err != nil {
			rt.Fatalf("upload: %v", err)
		}
		if addr != blob.Address(data) {
			rt.Fatalf("address mismatch")
		}
		got, err := m.Fetch(context.Background(), addr)
		if err != nil || string(got) != string(data) {
			rt.Fatalf("fetch: %v %v", got, err)
		}
	})
}

func TestMemory_Errors(t *testing.T) {
	m := blob.NewMemory()
	_, err := m.Upload(context.Background(), nil, "")
	assert.True(t, errors.Is(err, blob.ErrUpload))
	_, err = m.Fetch(context.Background(), "0xnope")
	assert.True(t, errors.Is(err, blob.ErrNotFound))
	_, err = m.Filename(context.Background(), "0xnope")
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}

func TestMemory_Filename(t *testing.T) {
	m := blob.NewMemory()
	addr, err := m.Upload(context.Background(), []byte("art"), "Ember.png")
	require.NoError(t, err)
	name, err := m.Filename(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "Ember.png", name)
}
