package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/database"
	"github.com/facelens/facelensbackend/repository"
)

// GroupHandler serves the face groups produced by the latest clustering pass.
// Group labels are replaced wholesale on every pass, so clients must treat
// them as ephemeral and re-fetch after processing finishes.
type GroupHandler struct {
	DB        database.Querier
	PhotoRepo repository.PhotoRepositoryInterface
}

// GroupListResponse wraps the group summaries
type GroupListResponse struct {
	Groups []database.GroupSummary `json:"groups"`
}

// GroupPhoto is one photo inside a group detail response
type GroupPhoto struct {
	PhotoID  string `json:"photo_id"`
	OrigName string `json:"orig_name"`
}

// GroupDetailResponse lists the photos containing a group's faces
type GroupDetailResponse struct {
	GroupID string       `json:"group_id"`
	Photos  []GroupPhoto `json:"photos"`
}

// ListGroups returns all groups, largest first
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	summaries, err := database.ListGroupSummaries(h.DB)
	if err != nil {
		log.Printf("groups: failed to list group summaries: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to list groups")
		return
	}
	if summaries == nil {
		summaries = []database.GroupSummary{}
	}
	writeJSON(w, http.StatusOK, GroupListResponse{Groups: summaries})
}

// GetGroup returns the distinct photos of one group, natural-sorted by their
// original display name
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	photoIDs, err := database.ListGroupPhotoIDs(h.DB, groupID)
	if err != nil {
		log.Printf("groups: failed to list photos for group %s: %v", groupID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to list group photos")
		return
	}
	if len(photoIDs) == 0 {
		WriteAPIError(w, http.StatusNotFound, "group_not_found", "group not found")
		return
	}

	photos := make([]GroupPhoto, 0, len(photoIDs))
	for _, id := range photoIDs {
		photo, err := h.PhotoRepo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			log.Printf("groups: failed to load photo %s: %v", id, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to load group photos")
			return
		}
		photos = append(photos, GroupPhoto{PhotoID: photo.ID, OrigName: photo.OrigName})
	}

	sort.Slice(photos, func(i, j int) bool {
		return natsort.Compare(photos[i].OrigName, photos[j].OrigName)
	})

	writeJSON(w, http.StatusOK, GroupDetailResponse{GroupID: groupID, Photos: photos})
}
