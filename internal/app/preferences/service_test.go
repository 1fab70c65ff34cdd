package preferences_test

import (
	"context"
	"encoding/json"
	"testing"

	memprefrepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/prefrepo"
	"github.com/dayscape/dayscape-backend/internal/app/preferences"
)

func TestService_SaveOverwritesWholesale(t *testing.T) {
	t.Parallel()

	svc := preferences.NewService(memprefrepo.NewRepo())
	ctx := context.Background()

	if _, ok, err := svc.Get(ctx, "a@x.com"); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}

	if err := svc.Save(ctx, "a@x.com", json.RawMessage(`{"units":"metric","theme":"dark"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A later save replaces the blob entirely; nothing is merged.
	if err := svc.Save(ctx, "a@x.com", json.RawMessage(`{"units":"imperial"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, ok, err := svc.Get(ctx, "a@x.com")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if string(data) != `{"units":"imperial"}` {
		t.Fatalf("data=%s", data)
	}

	// Preferences are keyed per subject.
	if _, ok, err := svc.Get(ctx, "b@x.com"); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}
