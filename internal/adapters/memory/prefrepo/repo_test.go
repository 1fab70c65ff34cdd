package prefrepo

import (
	"testing"

	"github.com/dayscape/dayscape-backend/internal/adapters/contracttest"
	prefrepoport "github.com/dayscape/dayscape-backend/internal/ports/out/prefrepo"
)

func TestContract_MemoryPrefRepo(t *testing.T) {
	t.Parallel()
	contracttest.RunPrefRepo(t, func(t *testing.T) (prefrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
