//go:build integration

package mongo

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/storetest"
)

// Set KINBOARD_MONGO_URI (e.g. mongodb://localhost:27017) and run with
// -tags integration.
func TestContract(t *testing.T) {
	uri := os.Getenv("KINBOARD_MONGO_URI")
	if uri == "" {
		t.Skip("KINBOARD_MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T) family.Store {
		ctx := context.Background()
		db := "kinboard_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		s, err := Open(ctx, Config{URI: uri, Database: db})
		require.NoError(t, err)
		t.Cleanup(func() {
			s.Drop(context.Background())
			s.Close()
		})
		return s
	})
}
