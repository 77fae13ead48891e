package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/core/service"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	grantService *service.GrantService
	logger       *zap.Logger
}

// GrantHTTPRequest mirrors the form fields. Numbers may arrive as JSON
// numbers or strings.
type GrantHTTPRequest struct {
	CharacterName     string      `json:"charname"`
	ItemID            json.Number `json:"itemid"`
	Quantity          json.Number `json:"quantity"`
	SenderDescription string      `json:"senderDescription"`
	SenderMessage     string      `json:"senderMessage"`
}

type GrantHTTPResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	GoodsID               int64  `json:"goods_id,omitempty"`
	LabelID               int64  `json:"label_id,omitempty"`
	ReconciliationPending bool   `json:"reconciliation_pending,omitempty"`
}

type CharactersHTTPResponse struct {
	Characters []string `json:"characters"`
}

type CatalogHTTPResponse struct {
	Categories []domain.ItemCategory `json:"categories"`
}

func NewHTTPHandler(grantService *service.GrantService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{grantService: grantService, logger: logger}
}

// Routes registers the handler endpoints on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/warehouse/grant", h.Grant)
	mux.HandleFunc("/api/warehouse/characters", h.Characters)
	mux.HandleFunc("/api/warehouse/catalog", h.Catalog)
}

func (h *HTTPHandler) Grant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	in, err := readGrantInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, GrantHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	receipt, err := h.grantService.Grant(r.Context(), in)
	if errors.Is(err, domain.ErrReconciliation) && receipt != nil {
		writeJSON(w, http.StatusAccepted, GrantHTTPResponse{
			Success:               true,
			Message:               pendingMessage(receipt.LabelID),
			GoodsID:               receipt.GoodsID,
			LabelID:               receipt.LabelID,
			ReconciliationPending: true,
		})
		return
	}
	if err != nil {
		f := classify(err)
		if f.httpStatus == http.StatusInternalServerError {
			h.logger.Error("grant failed", zap.String("character", in.CharacterName))
			h.logger.Debug("grant failure detail", zap.Error(err))
		}
		writeJSON(w, f.httpStatus, GrantHTTPResponse{
			Success: false,
			Message: f.message,
		})
		return
	}

	writeJSON(w, http.StatusOK, GrantHTTPResponse{
		Success: true,
		Message: grantedMessage(receipt.LabelID),
		GoodsID: receipt.GoodsID,
		LabelID: receipt.LabelID,
	})
}

func (h *HTTPHandler) Characters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names, err := h.grantService.Characters(r.Context(), r.URL.Query().Get("accountId"))
	if err != nil {
		f := classify(err)
		if f.httpStatus == http.StatusInternalServerError {
			h.logger.Debug("list characters", zap.Error(err))
		}
		http.Error(w, f.message, f.httpStatus)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, CharactersHTTPResponse{Characters: names})
}

func (h *HTTPHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.grantService.Catalog(r.Context())
	if err != nil {
		h.logger.Debug("list catalog", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []domain.ItemCategory{}
	}

	writeJSON(w, http.StatusOK, CatalogHTTPResponse{Categories: categories})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func readGrantInput(r *http.Request) (domain.GrantInput, error) {
	in := domain.GrantInput{RequestID: r.Header.Get(idempotencyHeader)}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if r.Method == http.MethodPost && mediaType == "application/json" {
		var req GrantHTTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return in, err
		}
		in.CharacterName = req.CharacterName
		in.ItemID = req.ItemID.String()
		in.Quantity = req.Quantity.String()
		in.SenderDescription = req.SenderDescription
		in.SenderMessage = req.SenderMessage
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.CharacterName = r.Form.Get("charname")
	in.ItemID = r.Form.Get("itemid")
	in.Quantity = r.Form.Get("quantity")
	in.SenderDescription = r.Form.Get("senderDescription")
	in.SenderMessage = r.Form.Get("senderMessage")
	return in, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
