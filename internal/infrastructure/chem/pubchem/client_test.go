package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/database/redis"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

const ethanolJSON = `{"PropertyTable":{"Properties":[{"CID":702,"Title":"Ethanol","IUPACName":"ethanol"}]}}`

func lookupConfig(baseURL string) config.LookupConfig {
	return config.LookupConfig{
		Enabled:  true,
		BaseURL:  baseURL,
		RPS:      100,
		Burst:    10,
		Timeout:  2 * time.Second,
		CacheTTL: time.Hour,
	}
}

func newFakePubChem(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, propertyPath, r.URL.Path)
		switch r.URL.Query().Get("smiles") {
		case "CCO":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(ethanolJSON))
		case "C1=CC=CC=C1O":
			_, _ = w.Write([]byte(`{"PropertyTable":{"Properties":[{"CID":996,"IUPACName":"phenol"}]}}`))
		case "BOOM":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("server busy"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"Fault":{"Code":"PUGREST.NotFound"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newMiniredisCache(t *testing.T) (redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewClientFromUniversal(rdb, logging.NewNopLogger())
	return redis.NewRedisCache(client, logging.NewNopLogger(), redis.WithTTLJitter(0)), mr
}

func TestResolveName_TitlePreferred(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	r, err := NewResolver(lookupConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	name, err := r.ResolveName(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, "Ethanol", name)
}

func TestResolveName_FallsBackToIUPAC(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	r, err := NewResolver(lookupConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	name, err := r.ResolveName(context.Background(), "C1=CC=CC=C1O")
	require.NoError(t, err)
	assert.Equal(t, "phenol", name)
}

func TestResolveName_NotFound(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	r, err := NewResolver(lookupConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	_, err = r.ResolveName(context.Background(), "C[Xe]C")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestResolveName_UpstreamError(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	r, err := NewResolver(lookupConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	_, err = r.ResolveName(context.Background(), "BOOM")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.ErrCodeNameLookupFailed))
	assert.Contains(t, err.Error(), "503")
}

func TestResolveName_Disabled(t *testing.T) {
	r, err := NewResolver(config.LookupConfig{Enabled: false}, nil, nil)
	require.NoError(t, err)
	assert.False(t, r.Enabled())

	name, err := r.ResolveName(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, molecule.UnknownMoleculeName, name)
}

func TestNewResolver_InvalidURL(t *testing.T) {
	cfg := lookupConfig("")
	_, err := NewResolver(cfg, nil, nil)
	assert.Error(t, err)
}

func TestResolveName_CachesHitsAndMisses(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	cache, mr := newMiniredisCache(t)
	r, err := NewResolver(lookupConfig(srv.URL), cache, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		name, err := r.ResolveName(context.Background(), "CCO")
		require.NoError(t, err)
		assert.Equal(t, "Ethanol", name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	for i := 0; i < 2; i++ {
		_, err := r.ResolveName(context.Background(), "C[Xe]C")
		assert.True(t, errs.IsNotFound(err))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	assert.True(t, mr.Exists("toxinsight:"+cacheKeyPfx+"CCO"))
	ttl := mr.TTL("toxinsight:" + cacheKeyPfx + "CCO")
	assert.Equal(t, time.Hour, ttl)
}

func TestResolveName_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	cache, _ := newMiniredisCache(t)
	r, err := NewResolver(lookupConfig(srv.URL), cache, nil)
	require.NoError(t, err)

	_, err = r.ResolveName(context.Background(), "BOOM")
	require.Error(t, err)
	_, err = r.ResolveName(context.Background(), "BOOM")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolveName_RateLimitHonoursContext(t *testing.T) {
	var calls int32
	srv := newFakePubChem(t, &calls)
	cfg := lookupConfig(srv.URL)
	cfg.RPS = 0.001
	cfg.Burst = 1
	r, err := NewResolver(cfg, nil, nil)
	require.NoError(t, err)

	_, err = r.ResolveName(context.Background(), "CCO")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.ResolveName(ctx, "C1=CC=CC=C1O")
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeRateLimit))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

//Personal.AI order the ending
