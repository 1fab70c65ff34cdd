package identity

import "errors"

// ErrMissingEmail indicates the provider payload carried no email claim, so
// no subject identity can be established for downstream stores.
var ErrMissingEmail = errors.New("userinfo payload has no email")
