package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
)

type feedbackRequest struct {
	DeliverableID    string              `json:"deliverableId"`
	Type             models.FeedbackType `json:"type"`
	Notes            string              `json:"notes"`
	SubmittedByName  string              `json:"submittedByName"`
	SubmittedByEmail string              `json:"submittedByEmail"`
}

type feedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId"`
}

type releaseRequest struct {
	DeliverableID string `json:"deliverableId"`
	SignedByName  string `json:"signedByName"`
	SignedByEmail string `json:"signedByEmail"`
}

type releaseResponse struct {
	Success   bool   `json:"success"`
	SignoffID string `json:"signoffId"`
	Message   string `json:"message"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Portal.ListProjects(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProject(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	details, err := s.svc.Portal.GetProject(r.Context(), principalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDetails(details))
}

// handleFeedback answers an unpaid approval with 403 rather than the 400
// release uses.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	fb, err := s.svc.Portal.SubmitFeedback(r.Context(), principalFrom(r.Context()), services.FeedbackInput{
		ProjectID:        r.PathValue("id"),
		DeliverableID:    req.DeliverableID,
		Type:             req.Type,
		Notes:            req.Notes,
		SubmittedByName:  req.SubmittedByName,
		SubmittedByEmail: req.SubmittedByEmail,
	})
	if err != nil {
		if errors.Is(err, common.ErrorPaymentRequired) {
			s.writeErrorStatus(w, r, err, http.StatusForbidden)
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{Success: true, FeedbackID: fb.ID})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Portal.Release(r.Context(), principalFrom(r.Context()), services.ReleaseInput{
		ProjectID:     r.PathValue("id"),
		DeliverableID: req.DeliverableID,
		SignedByName:  req.SignedByName,
		SignedByEmail: req.SignedByEmail,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, releaseResponse{Success: true, SignoffID: res.SignoffID, Message: res.Message})
}
