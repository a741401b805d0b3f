package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docgen/internal/domain"
)

// LinkSigner produces time-limited download links for stored artifacts.
type LinkSigner interface {
	SignedDownloadURL(path, fileName string) (string, error)
}

// DocumentRemover deletes a document together with its artifacts and stored
// objects.
type DocumentRemover interface {
	Delete(ctx context.Context, tenantID uuid.UUID, documentID int64) error
}

// App bundles the dependencies of the admin API handlers.
type App struct {
	Documents domain.DocumentRepository
	Artifacts domain.ArtifactRepository
	Links     LinkSigner
	Remover   DocumentRemover
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: encode response failed")
	}
}

func (a *App) error(w http.ResponseWriter, status int, message string) {
	a.json(w, status, map[string]string{"error": message})
}
