//go:build integration

package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/storetest"
)

// Set KINBOARD_REDIS_ADDR (e.g. localhost:6379) and run with -tags integration.
func TestContract(t *testing.T) {
	addr := os.Getenv("KINBOARD_REDIS_ADDR")
	if addr == "" {
		t.Skip("KINBOARD_REDIS_ADDR not set")
	}
	storetest.Run(t, func(t *testing.T) family.Store {
		ctx := context.Background()
		s, err := Open(ctx, Config{Addr: addr, Prefix: "kinboard-test-" + uuid.NewString()})
		require.NoError(t, err)
		t.Cleanup(func() {
			s.Reset(context.Background())
			s.Close()
		})
		return s
	})
}
