package userinfocache

import (
	"testing"

	"github.com/dayscape/dayscape-backend/internal/adapters/contracttest"
	userinfocacheport "github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

func TestContract_MemoryUserInfoCache(t *testing.T) {
	t.Parallel()
	contracttest.RunUserInfoCache(t, func(t *testing.T) (userinfocacheport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
