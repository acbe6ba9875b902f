package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
)

type createClientRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

type createProjectRequest struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

type createInvoiceRequest struct {
	Number          string `json:"number"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
	StripeInvoiceID string `json:"stripeInvoiceId"`
}

type createDeliverableRequest struct {
	Title      string                  `json:"title"`
	Version    int                     `json:"version"`
	State      models.DeliverableState `json:"state"`
	PreviewExt string                  `json:"previewExt"`
	FinalExt   string                  `json:"finalExt"`
}

type replaceFilesRequest struct {
	PreviewExt string `json:"previewExt"`
	FinalExt   string `json:"finalExt"`
}

type createFileRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Admin.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := dashboardResponse{
		ProjectsByStage:  d.ProjectsByStage,
		UnpaidProjects:   d.UnpaidProjects,
		UnmatchedPayment: d.UnmatchedPayment,
		LatestLeads:      make([]leadResponse, 0, len(d.LatestLeads)),
	}
	for _, l := range d.LatestLeads {
		out.LatestLeads = append(out.LatestLeads, toLead(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Admin.CreateClient(r.Context(), services.NewClient{Email: req.Email, Name: req.Name, Company: req.Company})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, clientResponse{ID: c.ID, UserID: c.UserID, Company: c.Company})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Admin.CreateProject(r.Context(), req.ClientID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProject(p))
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.svc.Admin.CreateInvoice(r.Context(), services.NewInvoice{
		ProjectID:       r.PathValue("id"),
		Number:          req.Number,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		StripeInvoiceID: req.StripeInvoiceID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoice(inv))
}

func (s *Server) handleCreateDeliverable(w http.ResponseWriter, r *http.Request) {
	var req createDeliverableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Admin.CreateDeliverable(r.Context(), services.NewDeliverable{
		ProjectID:  r.PathValue("id"),
		Title:      req.Title,
		Version:    req.Version,
		State:      req.State,
		PreviewExt: req.PreviewExt,
		FinalExt:   req.FinalExt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeliverableUpload(up))
}

func (s *Server) handleReplaceDeliverableFiles(w http.ResponseWriter, r *http.Request) {
	var req replaceFilesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Admin.ReplaceDeliverableFiles(r.Context(), r.PathValue("id"), req.PreviewExt, req.FinalExt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeliverableUpload(up))
}

func (s *Server) handleCreateProjectFile(w http.ResponseWriter, r *http.Request) {
	var req createFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Admin.CreateProjectFile(r.Context(), services.NewProjectFile{
		ProjectID:   r.PathValue("id"),
		Name:        req.Name,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fileUploadResponse{File: toFile(up.File), Upload: toUpload(up.Upload)})
}
