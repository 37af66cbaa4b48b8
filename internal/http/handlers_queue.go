package httpx

import (
	"context"
	"net/http"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// QueueAdmin is the service surface behind the admin queue routes.
type QueueAdmin interface {
	List(ctx context.Context, status string) ([]*model.QueueItem, error)
	Get(ctx context.Context, id string) (*model.QueueItem, error)
	Delete(ctx context.Context, id string) error
	EnqueueInvitation(ctx context.Context, membershipID string) (*model.QueueItem, error)
}

// QueueHandlers provides HTTP handlers for queue administration.
type QueueHandlers struct {
	Svc QueueAdmin
}

// List handles GET /api/admin/queue?status=.
func (h *QueueHandlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if items == nil {
		items = []*model.QueueItem{}
	}
	WriteJSON(w, http.StatusOK, items)
}

// Get handles GET /api/admin/queue/{id}.
func (h *QueueHandlers) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/admin/queue/{id}.
func (h *QueueHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invitationRequest struct {
	MembershipID string `json:"membership_id"`
}

// EnqueueInvitation handles POST /api/admin/invitations.
func (h *QueueHandlers) EnqueueInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	item, err := h.Svc.EnqueueInvitation(r.Context(), req.MembershipID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}
