package prefrepo

import (
	"testing"

	"github.com/dayscape/dayscape-backend/internal/adapters/contracttest"
	"github.com/dayscape/dayscape-backend/internal/adapters/postgres/testutil"
	prefrepoport "github.com/dayscape/dayscape-backend/internal/ports/out/prefrepo"
)

func TestContract_PostgresPrefRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunPrefRepo(t, func(t *testing.T) (prefrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
