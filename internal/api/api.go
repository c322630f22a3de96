// Package api holds the thin per-entity request builders consumed by
// the stores and front ends.
package api

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/lumenmarket/storefront-client/pkg/apierrors"
)

// Doer is the adapter surface the accessors build requests against.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkInput validates a request struct before it reaches the wire.
func checkInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return apierrors.Wrap(apierrors.KindRequest, err, "invalid input")
	}
	return nil
}
