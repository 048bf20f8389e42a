package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
)

// UUIDParam parses a uuid path parameter from the chi route context.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{name: raw})
	}
	return id, nil
}

// CartKeyParam extracts and validates the cart key path parameter.
func CartKeyParam(r *http.Request) (string, error) {
	key := strings.TrimSpace(chi.URLParam(r, "cartKey"))
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	return key, nil
}
