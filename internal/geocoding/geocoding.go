// Package geocoding resolves free-text addresses into coordinates.
//
// Failures are typed: *NotFoundError when the provider has no match for the
// address, *ProviderError for everything else. A coordinate is only ever
// returned together with a nil error.
package geocoding

import (
	"context"
	"errors"
	"fmt"

	"campus_cruiser/internal/models"
)

// Geocoder resolves an address to a position.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.Position, error)
}

// NotFoundError reports that the provider returned no results for Address.
type NotFoundError struct {
	Address string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No coordinates found for address: %q. Please try a more specific location.", e.Address)
}

// ProviderError reports any other geocoding failure for Address.
type ProviderError struct {
	Address string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Geocoding service failed for address: %q. Reason: %v", e.Address, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Wrap attaches address context to err. Errors that are already typed
// geocoding errors are returned unchanged.
func Wrap(address string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Address: address, Err: err}
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) (models.Position, error)

func (f GeocoderFunc) Resolve(ctx context.Context, address string) (models.Position, error) {
	return f(ctx, address)
}
