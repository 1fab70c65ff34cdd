package identityprovider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider fetches identity info for a bearer credential from the external
// identity provider. The provider is strictly rate limited; callers are
// expected to cache results.
type Provider interface {
	FetchUserInfo(ctx context.Context, token string) (json.RawMessage, error)
}

// UpstreamError reports a non-2xx response from the identity provider. The
// provider's status code is carried through so the boundary can log it and
// reject the credential.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identity provider returned status %d", e.StatusCode)
}
