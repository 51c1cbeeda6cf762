package client

import "io"

// UpdateOptions are the optional fields of a text or file update.
// Zero values mean absent: absent fields are not sent at all. Metadata and
// Rules are sent when non-nil, so an empty non-nil map is still sent.
type UpdateOptions struct {
	// Filename is only used by text updates; a file carries its own name.
	Filename       string
	Metadata       map[string]any
	Rules          []any
	UpdateStrategy string
	// UseColpali adds use_colpali to the query when non-nil, including false.
	UseColpali *bool
}

// File is the payload of a file update.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Bool returns a pointer to b, for UpdateOptions.UseColpali.
func Bool(b bool) *bool {
	return &b
}

func (o *UpdateOptions) useColpali() *bool {
	if o == nil {
		return nil
	}
	return o.UseColpali
}
