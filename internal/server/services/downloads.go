package services

import (
	"context"
	"database/sql"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/cryptox"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/policy"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel/attribute"
)

const defaultContentType = "application/octet-stream"

// Download is an opened file ready to stream. Callers must close
// Object.Body.
type Download struct {
	Object      *Object
	Filename    string
	ContentType string
	Watermarked bool
}

type SignedLink struct {
	URL     string
	Expires time.Time
}

// DownloadService serves deliverables and project files out of object
// storage.
type DownloadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	logger      logging.Logger
	signingKey  []byte
	baseURL     string
	linkTTL     time.Duration
	now         func() time.Time
}

func NewDownloadService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, logger logging.Logger, cfg *config.Config) *DownloadService {
	return &DownloadService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "downloads"),
		signingKey:  []byte(cfg.DownloadSigningKey),
		baseURL:     cfg.PublicBaseURL,
		linkTTL:     cfg.DownloadLinkTTL,
		now:         time.Now,
	}
}

// OpenDeliverable picks the file the caller may see for a deliverable and
// opens it. The choice is made on every call from the current project
// stage and deliverable state.
func (s *DownloadService) OpenDeliverable(ctx context.Context, p policy.Principal, deliverableID string) (*Download, error) {
	ctx, span := tracer.Start(ctx, "DownloadService.OpenDeliverable")
	defer span.End()
	span.SetAttributes(attribute.String("deliverable.id", deliverableID))

	if err := requireSession(p); err != nil {
		return nil, err
	}

	d, err := s.repomanager.Deliverables(s.db).GetByID(ctx, deliverableID)
	if err != nil {
		return nil, err
	}

	project, err := s.repomanager.Projects(s.db).GetByID(ctx, d.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("error loading project: %w", err)
	}
	if err := policy.AuthorizeProject(p, project).Err(); err != nil {
		return nil, err
	}

	if !p.IsAdmin() {
		project.Invoices, err = s.repomanager.Invoices(s.db).ListByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading invoices: %w", err)
		}
		if !policy.ProjectIsPaid(project) {
			return nil, common.ErrorPaymentRequired
		}
	}

	choice, err := policy.SelectFile(project.PortalStage, d)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("watermarked", choice.Watermarked))

	obj, err := s.store.Get(ctx, choice.Key)
	if err != nil {
		return nil, err
	}

	ext := path.Ext(choice.Key)
	return &Download{
		Object:      obj,
		Filename:    DeliverableFilename(d.Title, d.Version, choice.Watermarked, ext),
		ContentType: contentTypeFor(obj.ContentType, ext),
		Watermarked: choice.Watermarked,
	}, nil
}

// SignFileLink issues a time-limited download link for a project file.
func (s *DownloadService) SignFileLink(ctx context.Context, p policy.Principal, fileID string) (*SignedLink, error) {
	if err := requireSession(p); err != nil {
		return nil, err
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	project, err := s.repomanager.Projects(s.db).GetByID(ctx, file.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("error loading project: %w", err)
	}
	if err := policy.AuthorizeProject(p, project).Err(); err != nil {
		return nil, err
	}

	expires := s.now().Add(s.linkTTL).Truncate(time.Second)
	return &SignedLink{
		URL:     SignedFileURL(s.baseURL, s.signingKey, file.ID, expires),
		Expires: expires,
	}, nil
}

// OpenSignedFile serves a project file authorised by a signed link instead
// of a session.
func (s *DownloadService) OpenSignedFile(ctx context.Context, fileID, token, expiresParam string) (*Download, error) {
	if fileID == "" || token == "" || expiresParam == "" {
		return nil, fmt.Errorf("%w: token and expires are required", common.ErrorValidation)
	}
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed expires", common.ErrorValidation)
	}
	if s.now().Unix() > expires {
		return nil, common.ErrLinkExpired
	}
	if !cryptox.VerifySignature(s.signingKey, signedLinkMessage(fileID, expires), token) {
		return nil, common.ErrInvalidSignature
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, err
	}

	ct := file.ContentType
	if ct == "" || ct == defaultContentType {
		ct = obj.ContentType
	}
	return &Download{
		Object:      obj,
		Filename:    file.Name,
		ContentType: contentTypeFor(ct, path.Ext(file.Name)),
	}, nil
}

func signedLinkMessage(fileID string, expires int64) string {
	return fmt.Sprintf("%s:%d", fileID, expires)
}

// SignedFileURL builds /files/{id}/download?token=&expires= under baseURL.
func SignedFileURL(baseURL string, key []byte, fileID string, expires time.Time) string {
	exp := expires.Unix()
	q := url.Values{}
	q.Set("token", cryptox.Sign(key, signedLinkMessage(fileID, exp)))
	q.Set("expires", strconv.FormatInt(exp, 10))
	return strings.TrimRight(baseURL, "/") + "/files/" + url.PathEscape(fileID) + "/download?" + q.Encode()
}

// DeliverableFilename renders "<title>-v<version>[-DRAFT]<ext>" with the
// title reduced to filename-safe characters.
func DeliverableFilename(title string, version int, watermarked bool, ext string) string {
	var b strings.Builder
	b.WriteString(safeFilename(title))
	b.WriteString("-v")
	b.WriteString(strconv.Itoa(version))
	if watermarked {
		b.WriteString("-DRAFT")
	}
	b.WriteString(normalizeExt(ext))
	return b.String()
}

func safeFilename(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_', r == '.':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "deliverable"
	}
	return out
}

func contentTypeFor(stored, ext string) string {
	if stored != "" && stored != defaultContentType && stored != "binary/octet-stream" {
		return stored
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return defaultContentType
}
