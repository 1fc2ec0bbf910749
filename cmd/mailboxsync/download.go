package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/mailbox-sync/internal/gateway"
	"github.com/nhle/mailbox-sync/internal/model"
)

// downloadTarget picks where an attachment is written. An explicit path
// wins; otherwise the base name of the attachment's filename is used inside
// dir, falling back to its id.
func downloadTarget(dir, explicit string, att model.Attachment) string {
	if explicit != "" {
		return explicit
	}
	name := filepath.Base(strings.TrimSpace(att.Filename))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "attachment-" + att.ID.String()
	}
	return filepath.Join(dir, name)
}

func writeDownload(path string, dl gateway.Download) error {
	if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
