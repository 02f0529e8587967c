package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anonto42/nano-midea/engagement/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	log := logger.Discard()

	_, err := InitFirebase(context.Background(), "", log)
	assert.ErrorContains(t, err, "credentials path not provided")

	_, err = InitFirebase(context.Background(), filepath.Join(t.TempDir(), "missing.json"), log)
	assert.ErrorContains(t, err, "not found")
}
