package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
)

type signedLinkResponse struct {
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

var dispositionEscaper = strings.NewReplacer(`"`, "'", "\r", "", "\n", "")

// streamDownload writes d to w and closes the object body.
func (s *Server) streamDownload(w http.ResponseWriter, r *http.Request, d *services.Download, watermarkHeader bool) {
	defer d.Object.Body.Close()

	h := w.Header()
	h.Set("Content-Type", d.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, dispositionEscaper.Replace(d.Filename)))
	h.Set("Cache-Control", common.DownloadCacheControl)
	if watermarkHeader {
		h.Set("X-Watermarked", strconv.FormatBool(d.Watermarked))
	}
	if d.Object.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(d.Object.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, d.Object.Body); err != nil {
		s.logger.Warn(r.Context(), "download interrupted", "path", r.URL.Path, "error", err)
	}
}

// handleDeliverableDownload answers an unpaid client with 403.
func (s *Server) handleDeliverableDownload(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Downloads.OpenDeliverable(r.Context(), principalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrorPaymentRequired) {
			s.writeErrorStatus(w, r, err, http.StatusForbidden)
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.streamDownload(w, r, d, true)
}

func (s *Server) handleFileLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.Downloads.SignFileLink(r.Context(), principalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signedLinkResponse{URL: link.URL, Expires: link.Expires})
}

func (s *Server) handleSignedDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.svc.Downloads.OpenSignedFile(r.Context(), r.PathValue("id"), q.Get("token"), q.Get("expires"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.streamDownload(w, r, d, false)
}
