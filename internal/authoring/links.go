package authoring

import (
	"fmt"
	"strings"
)

// LinkList names one of the event's link lists.
type LinkList string

const (
	ResultsLinks LinkList = "results_links"
	DocsLinks    LinkList = "docs_links"
)

// Link field names accepted by SetLinkField.
const (
	FieldLinkLabel = "label"
	FieldLinkURL   = "url"
)

// Link is a labelled URL entry.
type Link struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// AddLink appends an entry with defaultLabel and an empty URL.
func (f *Form) AddLink(list LinkList, defaultLabel string) (string, error) {
	entries, err := f.linkList(list)
	if err != nil {
		return "", err
	}
	link := &Link{ID: newElementID(), Label: defaultLabel}
	entries.add(link.ID, link)
	return link.ID, nil
}

// RemoveLink drops an entry. Lists may become empty.
func (f *Form) RemoveLink(list LinkList, id string) error {
	entries, err := f.linkList(list)
	if err != nil {
		return err
	}
	if !entries.remove(id) {
		return unknownElement("link", id)
	}
	return nil
}

// SetLinkField updates label or url of an entry.
func (f *Form) SetLinkField(list LinkList, id, field, value string) error {
	entries, err := f.linkList(list)
	if err != nil {
		return err
	}
	link, ok := entries.get(id)
	if !ok {
		return unknownElement("link", id)
	}
	switch field {
	case FieldLinkLabel:
		link.Label = value
	case FieldLinkURL:
		link.URL = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// Links returns a copy of the entries in list.
func (f *Form) Links(list LinkList) []Link {
	entries, err := f.linkList(list)
	if err != nil {
		return nil
	}
	out := make([]Link, 0, entries.len())
	for _, l := range entries.list() {
		out = append(out, *l)
	}
	return out
}

func (f *Form) seedLinks(list LinkList) {
	label := DefaultResultsLabel
	if list == DocsLinks {
		label = DefaultDocsLabel
	}
	_, _ = f.AddLink(list, label)
}

func (f *Form) linkList(list LinkList) (*arena[Link], error) {
	entries, ok := f.links[list]
	if !ok {
		return nil, fmt.Errorf("%w: link list %q", ErrUnknownField, list)
	}
	return entries, nil
}
