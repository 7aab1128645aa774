package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cafe-cart/catalog"
	"cafe-cart/compose"
	models "cafe-cart/model"
	"cafe-cart/order"
	"cafe-cart/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc service.ServiceInterface
	log *zap.Logger
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: s, log: log}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Menu
	r.HandleFunc("/menu", h.ListMenu).Methods("GET")
	r.HandleFunc("/menu/{id}", h.GetItem).Methods("GET")

	// Cart
	r.HandleFunc("/cart/list", h.ListCart).Methods("GET")
	r.HandleFunc("/cart/add", h.AddToCart).Methods("POST")
	r.HandleFunc("/cart/remove", h.RemoveFromCart).Methods("POST")
	r.HandleFunc("/cart/quantity", h.UpdateQuantity).Methods("POST")
	r.HandleFunc("/cart/clear", h.ClearCart).Methods("POST")

	// Size prompt
	r.HandleFunc("/cart/size", h.SizePrompt).Methods("GET")
	r.HandleFunc("/cart/size/open", h.OpenSize).Methods("POST")
	r.HandleFunc("/cart/size/select", h.ChooseSize).Methods("POST")
	r.HandleFunc("/cart/size/dismiss", h.DismissSize).Methods("POST")

	// Checkout
	r.HandleFunc("/checkout/summary", h.Summary).Methods("GET")
	r.HandleFunc("/checkout/order", h.Checkout).Methods("POST")

	// Geo
	r.HandleFunc("/geo/reverse", h.Reverse).Methods("GET")
}

// --- request / response shapes ---
type addCartReq struct {
	ItemID string   `json:"item_id"`
	Size   string   `json:"size,omitempty"`
	Addons []string `json:"addons,omitempty"`
	// raw lines skip the catalog
	Name  string `json:"name,omitempty"`
	Price string `json:"price,omitempty"`
}

type indexReq struct {
	Index *int `json:"index"`
	Delta int  `json:"delta,omitempty"`
}

type openSizeReq struct {
	ItemID string   `json:"item_id"`
	Addons []string `json:"addons,omitempty"`
}

type chooseSizeReq struct {
	Size string `json:"size"`
}

type checkoutReq struct {
	Mobile  string   `json:"mobile"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceErr maps service errors to status codes.
func (h *Handler) writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case order.IsValidation(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, compose.ErrSizeRequired):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  err.Error(),
			"prompt": h.svc.SizePrompt(),
		})
	case errors.Is(err, compose.ErrUnknownSize),
		errors.Is(err, compose.ErrUnknownAddon),
		errors.Is(err, compose.ErrNoSizes),
		errors.Is(err, compose.ErrSelectorClosed):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Handler ---

// ListMenu handles GET /menu
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": h.svc.Menu()})
}

// GetItem handles GET /menu/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Item(mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ListCart handles GET /cart/list
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Cart())
}

// AddToCart handles POST /cart/add
// body: { "item_id": "gobi65", "size": "Full", "addons": ["Masala"] }
// or a raw line: { "name": "Masala Chai", "price": "20" }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" {
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, "item_id or name is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"cart": h.svc.AddLine(req.Name, req.Price)})
		return
	}
	l, err := h.svc.Add(req.ItemID, req.Size, req.Addons)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"line": l, "cart": h.svc.Cart()})
}

// RemoveFromCart handles POST /cart/remove
// body: { "index": 0 }
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req indexReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Index == nil {
		writeErr(w, http.StatusBadRequest, "index is required")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Remove(*req.Index))
}

// UpdateQuantity handles POST /cart/quantity
// body: { "index": 0, "delta": -1 }
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req indexReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Index == nil {
		writeErr(w, http.StatusBadRequest, "index is required")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.UpdateQuantity(*req.Index, req.Delta))
}

// ClearCart handles POST /cart/clear
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Clear())
}

// SizePrompt handles GET /cart/size
func (h *Handler) SizePrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SizePrompt())
}

// OpenSize handles POST /cart/size/open
func (h *Handler) OpenSize(w http.ResponseWriter, r *http.Request) {
	var req openSizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" {
		writeErr(w, http.StatusBadRequest, "item_id is required")
		return
	}
	p, err := h.svc.OpenSize(req.ItemID, req.Addons)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ChooseSize handles POST /cart/size/select
// body: { "size": "Full" }
func (h *Handler) ChooseSize(w http.ResponseWriter, r *http.Request) {
	var req chooseSizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Size == "" {
		writeErr(w, http.StatusBadRequest, "size is required")
		return
	}
	l, err := h.svc.ChooseSize(req.Size)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"line": l, "cart": h.svc.Cart()})
}

// DismissSize handles POST /cart/size/dismiss
func (h *Handler) DismissSize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DismissSize())
}

// Summary handles GET /checkout/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summary())
}

// Checkout handles POST /checkout/order
// body: { "mobile": "...", "address": "...", "lat": 12.9, "lng": 77.5 }
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	d := models.DeliveryDetails{Mobile: req.Mobile, Address: req.Address}
	if req.Lat != nil && req.Lng != nil {
		d.Location = &models.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	}
	rec, err := h.svc.Checkout(r.Context(), d)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Reverse handles GET /geo/reverse?lat=..&lng=..
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeErr(w, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Locate(r.Context(), lat, lng))
}
