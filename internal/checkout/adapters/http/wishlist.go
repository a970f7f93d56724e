package http

import (
	"net/http"
)

func (h *Handler) viewWishlist(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	wishlist, err := h.service.Wishlist(r.Context(), customerFrom(r.Context()), page)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"wishlist": wishlist})
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "productID")
	if !ok {
		return
	}
	change, err := h.service.AddToWishlist(r.Context(), customerFrom(r.Context()), productID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	message := "product added to wishlist"
	if !change.Added {
		message = "product already in wishlist"
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":             message,
		"wishlist_item_count": change.ItemCount,
	})
}

func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "productID")
	if !ok {
		return
	}
	if err := h.service.RemoveFromWishlist(r.Context(), customerFrom(r.Context()), productID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "item removed from wishlist"})
}

func (h *Handler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearWishlist(r.Context(), customerFrom(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "wishlist cleared"})
}
