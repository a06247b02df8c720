package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crimson-sun/emoshop/internal/catalog/loader"
	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/settings"
	"github.com/crimson-sun/emoshop/internal/shop"
	"github.com/crimson-sun/emoshop/internal/validation"
)

type productQuery struct {
	Category    string `query:"category" validate:"max=64"`
	Gender      string `query:"gender" validate:"max=32"`
	ArticleType string `query:"articleType" validate:"max=64"`
	Season      string `query:"season" validate:"max=32"`
	Price       string `query:"price" validate:"omitempty,pricebucket"`
	Color       string `query:"color" validate:"max=32"`
	Sort        string `query:"sort" validate:"omitempty,sortkey"`
	AI          string `query:"ai" validate:"omitempty,oneof=true false 1 0 on off"`
}

type productsResponse struct {
	Title      string                   `json:"title"`
	Scored     bool                     `json:"scored"`
	Emotion    model.Emotion            `json:"emotion,omitempty"`
	Preference *model.EmotionPreference `json:"preference,omitempty"`
	Count      int                      `json:"count"`
	Items      []model.ScoredProduct    `json:"items"`
}

type cartResponse struct {
	Items     []model.CartEntry `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     float64           `json:"total"`
}

type addRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}

type deltaRequest struct {
	Delta int `json:"delta" validate:"ne=0,min=-100,max=100"`
}

type analyzeRequest struct {
	Image string `json:"image"`
}

type refreshResponse struct {
	Result loader.Result `json:"result"`
	Status shop.Status   `json:"status"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pq := productQuery{
		Category:    q.Get("category"),
		Gender:      q.Get("gender"),
		ArticleType: q.Get("articleType"),
		Season:      q.Get("season"),
		Price:       q.Get("price"),
		Color:       q.Get("color"),
		Sort:        q.Get("sort"),
		AI:          strings.ToLower(q.Get("ai")),
	}
	if err := validation.Struct(pq); err != nil {
		h.fail(w, r, err)
		return
	}

	vq := shop.ViewQuery{
		Filter: model.FilterState{
			Category:    pq.Category,
			Gender:      pq.Gender,
			ArticleType: pq.ArticleType,
			Season:      pq.Season,
			PriceBucket: pq.Price,
			Color:       pq.Color,
		},
		Sort: model.SortKey(pq.Sort),
	}
	if pq.AI != "" {
		on := pq.AI == "true" || pq.AI == "1" || pq.AI == "on"
		vq.AIMode = &on
	}

	res := h.shop.Products(vq)
	writeJSON(w, http.StatusOK, productsResponse{
		Title:      res.Title,
		Scored:     res.Scored,
		Emotion:    res.Emotion,
		Preference: res.Preference,
		Count:      len(res.Items),
		Items:      res.Items,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.shop.Product(id)
	if !ok {
		h.fail(w, r, shop.ErrUnknownProduct)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) facets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.shop.Facets())
}

func (h *Handler) preferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.shop.Engine().Preferences().Entries())
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.shop.Refresh(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Result: res, Status: h.shop.Status()})
}

func (h *Handler) cartView() cartResponse {
	c := h.shop.Cart()
	return cartResponse{Items: c.Entries(), ItemCount: c.ItemCount(), Total: c.Total()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.add(w, r, req.ProductID)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.shop.AddToCart(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, ok := h.shop.Cart().UpdateQuantity(r.Context(), id, req.Delta); !ok {
		writeError(w, http.StatusNotFound, "NOT_IN_CART", "product "+strconv.Quote(id)+" is not in the cart")
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.shop.Cart().Remove(r.Context(), id) {
		writeError(w, http.StatusNotFound, "NOT_IN_CART", "product "+strconv.Quote(id)+" is not in the cart")
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.shop.Cart().Clear(r.Context())
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.shop.Checkout(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) startCamera(w http.ResponseWriter, r *http.Request) {
	// The loop outlives the request.
	if err := h.shop.StartCamera(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.shop.Snapshot())
}

func (h *Handler) stopCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.StopCamera(); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.shop.Snapshot())
}

func (h *Handler) getEmotion(w http.ResponseWriter, r *http.Request) {
	snap := h.shop.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"emotion":      snap.Emotion,
		"cameraActive": snap.Camera,
		"aiMode":       snap.AIMode,
	})
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, err)
		return
	}

	var frame *detector.Frame
	if req.Image != "" {
		f, err := decodeImage(req.Image)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		frame = &f
	}
	de, err := h.shop.Analyze(r.Context(), frame)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, de)
}

// decodeImage accepts a data URI ("data:image/jpeg;base64,...") or bare
// base64.
func decodeImage(s string) (detector.Frame, error) {
	contentType := "image/jpeg"
	payload := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return detector.Frame{}, imageError("image must be a base64 data URI")
		}
		if ct := strings.TrimSuffix(meta, ";base64"); ct != "" {
			contentType = ct
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return detector.Frame{}, imageError("image is not valid base64")
	}
	if len(raw) == 0 {
		return detector.Frame{}, imageError("image is empty")
	}
	return detector.Frame{Data: raw, ContentType: contentType, CapturedAt: time.Now()}, nil
}

func imageError(msg string) error {
	return &validation.Error{Fields: []validation.FieldError{{Field: "image", Tag: "image", Message: msg}}}
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.shop.Settings())
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var c settings.Connection
	if err := decode(r, &c); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request body required")
			return
		}
		h.fail(w, r, err)
		return
	}
	if err := validation.Struct(c); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.shop.UpdateSettings(r.Context(), c); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.shop.Settings())
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.shop.Snapshot())
}
