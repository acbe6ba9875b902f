package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/jomei/notionapi"
)

const (
	fieldNoteDraftStatus = "Draft"
	notionPageSize       = 100
)

var queryNotionDatabase = func(c *notionapi.Client, ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return c.Database.Query(ctx, id, req)
}

// FieldNotesService reads the field notes blog out of a Notion database.
type FieldNotesService struct {
	client     *notionapi.Client
	databaseID string
}

// NewFieldNotesService returns a service that reports common.ErrNotConfigured
// when token or databaseID is empty.
func NewFieldNotesService(token, databaseID string) *FieldNotesService {
	s := &FieldNotesService{databaseID: databaseID}
	if token != "" {
		s.client = notionapi.NewClient(notionapi.Token(token))
	}
	return s
}

// List returns all published notes, newest first.
func (s *FieldNotesService) List(ctx context.Context) ([]models.FieldNote, error) {
	if s.client == nil || s.databaseID == "" {
		return nil, common.ErrNotConfigured
	}

	ctx, span := tracer.Start(ctx, "FieldNotesService.List")
	defer span.End()

	notes := []models.FieldNote{}
	req := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderDESC},
		},
		PageSize: notionPageSize,
	}
	for {
		resp, err := queryNotionDatabase(s.client, ctx, notionapi.DatabaseID(s.databaseID), req)
		if err != nil {
			return nil, fmt.Errorf("notion query: %w", err)
		}
		for _, page := range resp.Results {
			note := fieldNoteFromPage(page)
			if strings.EqualFold(note.Status, fieldNoteDraftStatus) {
				continue
			}
			notes = append(notes, note)
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}
	return notes, nil
}

func fieldNoteFromPage(page notionapi.Page) models.FieldNote {
	props := page.Properties
	note := models.FieldNote{
		ID:      string(page.ID),
		Title:   titleOf(props, "Name", "Title"),
		Type:    selectOf(props["Type"]),
		Focus:   multiSelectOf(props["Focus"]),
		Status:  selectOf(props["Status"]),
		Created: page.CreatedTime,
		URL:     page.URL,
	}
	if t := dateOf(props["Created"]); t != nil {
		note.Created = *t
	}
	if t := dateOf(props["Revisited"]); t != nil {
		note.Revisited = t
	} else if !page.LastEditedTime.IsZero() {
		edited := page.LastEditedTime
		note.Revisited = &edited
	}
	return note
}

func titleOf(props notionapi.Properties, names ...string) string {
	for _, name := range names {
		if p, ok := props[name].(*notionapi.TitleProperty); ok {
			return plainText(p.Title)
		}
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, t := range rt {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

func selectOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.StatusProperty:
		return v.Status.Name
	}
	return ""
}

func multiSelectOf(p notionapi.Property) []string {
	out := []string{}
	if v, ok := p.(*notionapi.MultiSelectProperty); ok {
		for _, o := range v.MultiSelect {
			out = append(out, o.Name)
		}
	}
	return out
}

func dateOf(p notionapi.Property) *time.Time {
	v, ok := p.(*notionapi.DateProperty)
	if !ok || v.Date == nil || v.Date.Start == nil {
		return nil
	}
	t := time.Time(*v.Date.Start)
	return &t
}
