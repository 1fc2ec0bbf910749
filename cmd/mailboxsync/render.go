package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nhle/mailbox-sync/internal/model"
	appsync "github.com/nhle/mailbox-sync/internal/sync"
	"github.com/nhle/mailbox-sync/internal/theme"
	"github.com/nhle/mailbox-sync/internal/view"
)

func renderThreads(w io.Writer, sections []view.ThreadSection, now time.Time) {
	fmt.Fprintln(w, theme.HeaderStyle.Render("Threads"))
	if len(sections) == 0 {
		fmt.Fprintln(w, theme.HelpStyle.Render("  no threads"))
	}
	for _, s := range sections {
		fmt.Fprintln(w, theme.SectionStyle.Render(string(s.Bucket)))
		for _, p := range view.ThreadPreviews(s.Threads, now) {
			fmt.Fprintln(w, theme.ListItemStyle.Render(threadLine(p)))
		}
	}
	fmt.Fprintln(w)
}

func threadLine(p view.ThreadPreview) string {
	var b strings.Builder
	if p.Unread {
		b.WriteString("* ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString("[" + strings.Join(p.Initials, " ") + "] ")
	subject := p.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	if p.Unread {
		subject = theme.UnreadStyle.Render(subject)
	}
	b.WriteString(subject)
	if p.Muted {
		b.WriteString(" (muted)")
	}
	b.WriteString("  " + theme.HelpStyle.Render(p.Received))
	if p.Snippet != "" {
		b.WriteString("\n    " + theme.HelpStyle.Render(p.Snippet))
	}
	return b.String()
}

func renderProfile(w io.Writer, p model.Profile) {
	line := "Signed in as " + p.Name()
	if p.Email != "" && p.Email != p.Name() {
		line += " <" + p.Email + ">"
	}
	fmt.Fprintln(w, theme.HeaderStyle.Render(line))
	fmt.Fprintln(w)
}

func renderContacts(w io.Writer, sections []view.ContactSection) {
	fmt.Fprintln(w, theme.HeaderStyle.Render("Contacts"))
	if len(sections) == 0 {
		fmt.Fprintln(w, theme.HelpStyle.Render("  no contacts"))
	}
	for _, s := range sections {
		fmt.Fprintln(w, theme.SectionStyle.Render(s.Key))
		for _, c := range s.Contacts {
			fmt.Fprintln(w, theme.ListItemStyle.Render(contactLine(c)))
		}
	}
	fmt.Fprintln(w)
}

func contactLine(c model.Contact) string {
	line := c.Label()
	if strings.TrimSpace(c.DisplayName) != "" && c.Email != "" {
		line += " <" + c.Email + ">"
	}
	if c.IsMarkedAsSpam {
		line += " (spam)"
	}
	if c.NotificationPreference != "" && c.NotificationPreference != model.NotifyDefault {
		line += " [" + string(c.NotificationPreference) + "]"
	}
	return line
}

func renderAttachments(w io.Writer, tiles []view.AttachmentTile) {
	fmt.Fprintln(w, theme.HeaderStyle.Render("Attachments"))
	if len(tiles) == 0 {
		fmt.Fprintln(w, theme.HelpStyle.Render("  no attachments"))
	}
	for _, t := range tiles {
		kind := theme.KindStyle(string(t.Kind)).Render(string(t.Kind))
		line := fmt.Sprintf("%s %s  %s", kind, t.Filename, t.Size)
		fmt.Fprintln(w, theme.ListItemStyle.Render(line))
	}
	fmt.Fprintln(w)
}

func renderStatuses(w io.Writer, statuses []appsync.SyncStatus) {
	for _, s := range statuses {
		state := theme.SyncStateStyle(s.State.String()).Render(s.State.String())
		line := fmt.Sprintf("%-12s %s %d", s.Name, state, s.Count)
		if s.Error != nil {
			line += "  " + theme.HelpStyle.Render(s.Error.Error())
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}
