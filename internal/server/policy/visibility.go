package policy

import (
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

// FileChoice is the object to stream for a deliverable download.
type FileChoice struct {
	Key         string
	Watermarked bool
}

// SelectFile decides which prepared file a download gets:
//
//	stage RELEASED/COMPLETE and state FINAL -> clean file
//	otherwise, preview uploaded             -> watermarked preview
//	otherwise                               -> ErrNoFileAvailable
//
// A released FINAL deliverable without a clean upload falls back to its
// preview rather than failing.
func SelectFile(stage models.PortalStage, d *models.Deliverable) (FileChoice, error) {
	if d == nil {
		return FileChoice{}, common.ErrNoFileAvailable
	}
	if stage.IsReleased() && d.State == models.DeliverableFinal && d.FinalKey != "" {
		return FileChoice{Key: d.FinalKey}, nil
	}
	if d.PreviewKey != "" {
		return FileChoice{Key: d.PreviewKey, Watermarked: true}, nil
	}
	return FileChoice{}, common.ErrNoFileAvailable
}
