package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/vietdv277/autoclass/pkg/provider"
)

// Classify wraps a Cloud Storage error with the matching provider sentinel.
// Rate limiting, server errors and failed metageneration preconditions are
// transient; everything else is terminal.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %w", provider.ErrTransient, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", provider.ErrPermissionDenied, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", provider.ErrInvalidArgument, err)
	default:
		return err
	}
}
