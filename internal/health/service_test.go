package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestService_Check(t *testing.T) {
	t.Run("all checks passing", func(t *testing.T) {
		svc := NewService(0, map[string]CheckFunc{
			"db":  func(ctx context.Context) error { return nil },
			"crm": func(ctx context.Context) error { return nil },
		})

		res := svc.Check(context.Background())
		require.True(t, res.OK)
		require.Equal(t, map[string]string{"db": "ok", "crm": "ok"}, res.Checks)
	})

	t.Run("single failing check takes the service down", func(t *testing.T) {
		svc := NewService(0, map[string]CheckFunc{
			"db":  func(ctx context.Context) error { return nil },
			"crm": func(ctx context.Context) error { return errors.New("connection refused") },
		})

		res := svc.Check(context.Background())
		require.False(t, res.OK)
		require.Equal(t, "ok", res.Checks["db"])
		require.Equal(t, "connection refused", res.Checks["crm"])
	})

	t.Run("nil check is a failure", func(t *testing.T) {
		svc := NewService(0, map[string]CheckFunc{"db": nil})
		res := svc.Check(context.Background())
		require.False(t, res.OK)
	})

	t.Run("result is cached within the ttl", func(t *testing.T) {
		calls := 0
		svc := NewService(50*time.Millisecond, map[string]CheckFunc{
			"db": func(ctx context.Context) error { calls++; return nil },
		})

		res1 := svc.Check(context.Background())
		res2 := svc.Check(context.Background())
		require.Equal(t, res1.At, res2.At)
		require.Equal(t, 1, calls)

		time.Sleep(60 * time.Millisecond)
		res3 := svc.Check(context.Background())
		require.NotEqual(t, res2.At, res3.At)
		require.Equal(t, 2, calls)
	})
}
