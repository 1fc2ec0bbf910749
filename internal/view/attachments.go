package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nhle/mailbox-sync/internal/model"
)

// Kind is the coarse file type used to pick an icon.
type Kind string

const (
	KindImage       Kind = "image"
	KindAudio       Kind = "audio"
	KindVideo       Kind = "video"
	KindPDF         Kind = "pdf"
	KindArchive     Kind = "archive"
	KindSpreadsheet Kind = "spreadsheet"
	KindCode        Kind = "code"
	KindDocument    Kind = "document"
	KindOther       Kind = "other"
)

// AttachmentTile is one cell of the attachment grid.
type AttachmentTile struct {
	ID         model.ID
	Filename   string
	MIMEType   string
	Size       string
	Kind       Kind
	PreviewURL string
}

// KindOf classifies a MIME type.
func KindOf(mime string) Kind {
	mime = strings.ToLower(strings.TrimSpace(mime))
	contains := func(parts ...string) bool {
		return slices.ContainsFunc(parts, func(p string) bool {
			return strings.Contains(mime, p)
		})
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case contains("pdf"):
		return KindPDF
	case contains("zip", "compressed"):
		return KindArchive
	case contains("csv", "spreadsheet", "excel", "sheet"):
		return KindSpreadsheet
	case contains("json", "xml", "javascript", "plain"):
		return KindCode
	case contains("msword", "wordprocessingml"):
		return KindDocument
	default:
		return KindOther
	}
}

// AttachmentTiles builds grid cells for attachments, newest first. Only
// images with an access URL get a preview.
func AttachmentTiles(attachments []model.Attachment) []AttachmentTile {
	sorted := slices.Clone(attachments)
	slices.SortFunc(sorted, func(a, b model.Attachment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	tiles := make([]AttachmentTile, 0, len(sorted))
	for _, a := range sorted {
		tile := AttachmentTile{
			ID:       a.ID,
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     humanize.IBytes(uint64(max(a.Size, 0))),
			Kind:     KindOf(a.MIMEType),
		}
		if tile.Kind == KindImage {
			tile.PreviewURL = a.PrivateFileURL
		}
		tiles = append(tiles, tile)
	}
	return tiles
}
