// Package view derives display groupings from store snapshots. Every
// function is pure: it never mutates its input and returns the same output
// for the same input.
package view

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nhle/mailbox-sync/internal/model"
)

// CatchAllKey groups contacts whose label does not start with a letter.
const CatchAllKey = "#"

// ContactSection is one alphabetical group of contacts.
type ContactSection struct {
	Key      string
	Contacts []model.Contact
}

// ContactSections groups contacts by the uppercase first letter of their
// label. Sections and the contacts inside them are ordered with the collation
// rules of locale; the catch-all section comes last.
func ContactSections(contacts []model.Contact, locale string) []ContactSection {
	col := collate.New(language.Make(locale), collate.IgnoreCase)

	groups := make(map[string][]model.Contact)
	for _, c := range contacts {
		key := sectionKey(c.Label())
		groups[key] = append(groups[key], c)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		if key != CatchAllKey {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if _, ok := groups[CatchAllKey]; ok {
		keys = append(keys, CatchAllKey)
	}

	sections := make([]ContactSection, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		slices.SortFunc(members, func(a, b model.Contact) int {
			if c := col.CompareString(a.Label(), b.Label()); c != 0 {
				return c
			}
			return strings.Compare(string(a.ID), string(b.ID))
		})
		sections = append(sections, ContactSection{Key: key, Contacts: members})
	}
	return sections
}

func sectionKey(label string) string {
	r, _ := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return CatchAllKey
	}
	return string(unicode.ToUpper(r))
}
