package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization = Bearer abc ,bad, =skip,x-tenant=rewards")
	require.Equal(t, map[string]string{
		"authorization": "Bearer abc",
		"x-tenant":      "rewards",
	}, headers)
	require.Empty(t, ParseHeaders(""))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.True(t, errors.Is(err, ErrServiceName))
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "rewardsd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.NotNil(t, Tracer())
}

func TestSamplerBounds(t *testing.T) {
	require.Contains(t, sampler(0).Description(), "AlwaysOn")
	require.Contains(t, sampler(1.5).Description(), "AlwaysOn")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
