package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"stallsync/internal/ledger"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrValidation, http.StatusBadRequest},
		{ledger.ErrInsufficientStock, http.StatusConflict},
		{ledger.ErrInvalidScope, http.StatusConflict},
		{ledger.ErrUnlinkedItem, http.StatusConflict},
		{ledger.ErrInconsistentPropagation, http.StatusConflict},
		{ledger.ErrContention, http.StatusServiceUnavailable},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusFor(c.err), "for %v", c.err)
		// Wrapping must not change the mapping.
		assert.Equal(t, c.want, StatusFor(fmt.Errorf("context: %w", c.err)))
	}
}
