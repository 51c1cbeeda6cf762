package model

import (
	"encoding/json"
	"strconv"
)

// Document is the record the document API returns after an update.
// The client never constructs one; it only decodes the server's response and
// hands it back. No field is validated locally.
type Document struct {
	ExternalID         string         `json:"external_id"`
	Owner              map[string]any `json:"owner,omitempty"`
	ContentType        string         `json:"content_type"`
	Filename           *string        `json:"filename,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	StorageInfo        map[string]any `json:"storage_info,omitempty"`
	StorageFiles       []StorageFile  `json:"storage_files,omitempty"`
	SystemMetadata     map[string]any `json:"system_metadata,omitempty"`
	AdditionalMetadata map[string]any `json:"additional_metadata,omitempty"`
	AccessControl      map[string]any `json:"access_control,omitempty"`
	ChunkIDs           []string       `json:"chunk_ids,omitempty"`

	raw json.RawMessage
}

// StorageFile references one stored copy of a document's file.
// Timestamp is kept as the server formatted it.
type StorageFile struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Version     int    `json:"version"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// documentFields has Document's fields without its methods, so the default
// encoding applies to it.
type documentFields Document

// UnmarshalJSON keeps the original bytes and fills the typed fields from
// whatever of them fits. Any valid JSON is accepted: a top-level value that
// is not an object leaves every field zero, and a key whose value has
// another shape than its field expects is skipped. Only malformed JSON is
// an error.
func (d *Document) UnmarshalJSON(b []byte) error {
	if !json.Valid(b) {
		var v json.RawMessage
		return json.Unmarshal(b, &v)
	}
	*d = Document{raw: append(json.RawMessage(nil), b...)}

	var obj map[string]json.RawMessage
	if json.Unmarshal(b, &obj) != nil {
		return nil
	}
	d.ExternalID, _ = field[string](obj, "external_id")
	d.Owner, _ = field[map[string]any](obj, "owner")
	d.ContentType, _ = field[string](obj, "content_type")
	if name, ok := field[string](obj, "filename"); ok {
		d.Filename = &name
	}
	d.Metadata, _ = field[map[string]any](obj, "metadata")
	d.StorageInfo, _ = field[map[string]any](obj, "storage_info")
	d.SystemMetadata, _ = field[map[string]any](obj, "system_metadata")
	d.AdditionalMetadata, _ = field[map[string]any](obj, "additional_metadata")
	d.AccessControl, _ = field[map[string]any](obj, "access_control")

	if items, ok := field[[]json.RawMessage](obj, "chunk_ids"); ok {
		for _, item := range items {
			var id string
			if json.Unmarshal(item, &id) == nil {
				d.ChunkIDs = append(d.ChunkIDs, id)
			}
		}
	}
	if items, ok := field[[]map[string]json.RawMessage](obj, "storage_files"); ok {
		for _, item := range items {
			d.StorageFiles = append(d.StorageFiles, storageFileFrom(item))
		}
	}
	return nil
}

// storageFileFrom reads the fields of one storage_files entry. Version is
// also taken from a quoted integer.
func storageFileFrom(obj map[string]json.RawMessage) StorageFile {
	var f StorageFile
	f.Bucket, _ = field[string](obj, "bucket")
	f.Key, _ = field[string](obj, "key")
	if n, ok := field[json.Number](obj, "version"); ok {
		if v, err := strconv.Atoi(n.String()); err == nil {
			f.Version = v
		}
	}
	f.Filename, _ = field[string](obj, "filename")
	f.ContentType, _ = field[string](obj, "content_type")
	f.Timestamp, _ = field[string](obj, "timestamp")
	return f
}

// field decodes obj[key] into a T. It reports false, leaving the zero
// value, when the key is missing, null or of another shape.
func field[T any](obj map[string]json.RawMessage, key string) (T, bool) {
	var v T
	b, ok := obj[key]
	if !ok || string(b) == "null" {
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// MarshalJSON re-emits the server's bytes when the document was decoded from
// a response, so callers passing it along see it untransformed.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	return json.Marshal(documentFields(d))
}

// Raw returns the response body the document was decoded from, or nil.
func (d *Document) Raw() json.RawMessage {
	return d.raw
}

// Fields returns the document as a generic JSON object. It fails when the
// server answered with a JSON value other than an object.
func (d *Document) Fields() (map[string]any, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
