package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// AssetService is the asset use case consumed by AssetHandler.
type AssetService interface {
	PurchaseAsset(ctx context.Context, input usecase.PurchaseAssetInput) (*usecase.PurchaseAssetOutput, error)
	SellAsset(ctx context.Context, assetID string, input usecase.SellAssetInput) (*usecase.SellAssetOutput, error)
	MoveAsset(ctx context.Context, assetID string, input usecase.MoveAssetInput) (*domain.ChangeLogEntry, error)
	GetAsset(ctx context.Context, assetID string) (*domain.FixedAsset, error)
	History(ctx context.Context, assetID string) ([]*domain.ChangeLogEntry, error)
}

// AssetHandler handles fixed asset HTTP requests.
type AssetHandler struct {
	assets AssetService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assets AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// Purchase buys a new asset.
func (h *AssetHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req dto.PurchaseAssetRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.assets.PurchaseAsset(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PurchaseAssetFromOutput(out))
}

// Sell sells an asset.
func (h *AssetHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req dto.SellAssetRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.assets.SellAsset(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SellAssetFromOutput(out))
}

// Move changes custodian or location. A request that changes nothing
// answers 204.
func (h *AssetHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req dto.MoveAssetRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.assets.MoveAsset(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}

	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChangeLogFromDomain(entry))
}

// Get retrieves an asset by ID.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assets.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AssetFromDomain(asset))
}

// History lists an asset's change log.
func (h *AssetHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.assets.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChangeLogsFromDomain(entries))
}
