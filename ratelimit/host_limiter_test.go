package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostOf(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"simple":       {input: "https://Example.com/a", want: "example.com"},
		"with port":    {input: "http://example.com:8080/a", want: "example.com:8080"},
		"missing host": {input: "/relative/path", wantErr: true},
		"bad url":      {input: "http://[::1", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := HostOf(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHostLimiter_SpacesSameHost(t *testing.T) {
	limiter := NewHostLimiter(50*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "https://a.example/1"))
	require.NoError(t, limiter.Wait(ctx, "https://a.example/2"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiter_IndependentHosts(t *testing.T) {
	limiter := NewHostLimiter(time.Hour, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "https://a.example/1"))
	require.NoError(t, limiter.Wait(ctx, "https://b.example/1"))
	assert.Equal(t, 2, limiter.Hosts())
}

func TestHostLimiter_ContextCancelled(t *testing.T) {
	limiter := NewHostLimiter(time.Hour, 1)
	require.NoError(t, limiter.Wait(context.Background(), "https://a.example/1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, limiter.Wait(ctx, "https://a.example/2"))
}

func TestNewRequestLimiter_Disabled(t *testing.T) {
	limiter := NewRequestLimiter(0)
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow())
	}
}
