package stub

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docclient/internal/auth"
	"docclient/internal/http/middleware"
	"docclient/internal/model"
)

const (
	opUpdateText     = "update_text"
	opUpdateFile     = "update_file"
	opUpdateMetadata = "update_metadata"

	stubBucket = "stub"
)

func (s *Server) registerRoutes(reg *prometheus.Registry) {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	docs := s.app.Group("/documents/:id", s.authorize)
	docs.Post("/"+opUpdateText, s.updateText)
	docs.Post("/"+opUpdateFile, s.updateFile)
	docs.Post("/"+opUpdateMetadata, s.updateMetadata)
}

// authorize checks the bearer token when a secret is configured and stores
// its subject in locals.
func (s *Server) authorize(c *fiber.Ctx) error {
	if s.secret == "" {
		return c.Next()
	}
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || token == "" {
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
	}
	claims, err := auth.ParseToken(s.secret, token)
	if err != nil {
		s.log.Debug("rejected token", "error", err)
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
	}
	c.Locals("subject", claims.Subject)
	return c.Next()
}

func (s *Server) updateText(c *fiber.Ctx) error {
	r := s.newRequest(c, opUpdateText)

	body := map[string]any{}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_JSON", "request body is not a JSON object")
	}
	r.JSON = body

	text, ok := body["text"].(string)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "TEXT_REQUIRED", "text is required")
	}
	str := func(k string) string {
		v, _ := body[k].(string)
		return v
	}
	fields := map[string]string{
		"filename":        str("filename"),
		"metadata":        str("metadata"),
		"rules":           str("rules"),
		"update_strategy": str("update_strategy"),
	}
	doc, err := s.echo(c, r, fields)
	if doc == nil {
		return err
	}
	doc.ContentType = "text/plain"
	doc.SystemMetadata["content_length"] = len(text)
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (s *Server) updateFile(c *fiber.Ctx) error {
	r := s.newRequest(c, opUpdateFile)

	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form expected")
	}
	r.Fields = make(map[string]string, len(form.Value))
	for k, v := range form.Value {
		if len(v) > 0 {
			r.Fields[k] = v[0]
		}
	}

	fhs := form.File["file"]
	if len(fhs) == 0 {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	fh := fhs[0]
	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	r.File = &File{Filename: fh.Filename, ContentType: ct, Content: content}

	fields := map[string]string{
		"filename":        fh.Filename,
		"metadata":        r.Fields["metadata"],
		"rules":           r.Fields["rules"],
		"update_strategy": r.Fields["update_strategy"],
	}
	doc, err := s.echo(c, r, fields)
	if doc == nil {
		return err
	}
	doc.ContentType = ct
	doc.SystemMetadata["content_length"] = len(content)
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (s *Server) updateMetadata(c *fiber.Ctx) error {
	r := s.newRequest(c, opUpdateMetadata)

	var body struct {
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil || body.Metadata == nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_JSON", "body must be {\"metadata\": {...}}")
	}
	r.JSON = map[string]any{"metadata": body.Metadata}

	doc, err := s.echo(c, r, nil)
	if doc == nil {
		return err
	}
	doc.Metadata = body.Metadata
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (s *Server) newRequest(c *fiber.Ctx, op string) Request {
	header := make(map[string]string)
	for k, v := range c.GetReqHeaders() {
		if len(v) > 0 {
			header[k] = v[0]
		}
	}
	subject, _ := c.Locals("subject").(string)
	return Request{
		RequestID:  middleware.RequestIDFromCtx(c),
		Operation:  op,
		DocumentID: c.Params("id"),
		Method:     c.Method(),
		Path:       c.Path(),
		Query:      c.Queries(),
		Header:     header,
		Body:       append([]byte(nil), c.Body()...),
		Subject:    subject,
	}
}

// echo records r and builds the response document from the string fields the
// client sent. Metadata and rules arrive JSON-encoded and are decoded back
// before the document version moves, so a rejected call leaves it unchanged.
// A nil document means the response has already been written.
func (s *Server) echo(c *fiber.Ctx, r Request, fields map[string]string) (*model.Document, error) {
	var (
		md      map[string]any
		rules   []any
		invalid *fieldError
	)
	if raw := fields["metadata"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &md); err != nil {
			invalid = &fieldError{code: "INVALID_METADATA", message: "metadata must be a JSON-encoded object"}
		}
	}
	if raw := fields["rules"]; raw != "" && invalid == nil {
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			invalid = &fieldError{code: "INVALID_RULES", message: "rules must be a JSON-encoded array"}
		}
	}

	version, fail := s.record(r, invalid == nil)
	if fail != nil {
		c.Status(fail.status)
		return nil, c.SendString(fail.body)
	}
	if invalid != nil {
		s.log.Debug("rejected update", "operation", r.Operation, "document_id", r.DocumentID, "code", invalid.code)
		return nil, writeError(c, fiber.StatusBadRequest, invalid.code, invalid.message)
	}
	s.log.Debug("recorded update", "operation", r.Operation, "document_id", r.DocumentID, "version", version)

	now := s.now().UTC().Format("2006-01-02T15:04:05.000000Z")
	doc := &model.Document{
		ExternalID: r.DocumentID,
		SystemMetadata: map[string]any{
			"version":    version,
			"updated_at": now,
			"request_id": r.RequestID,
		},
		AdditionalMetadata: map[string]any{},
	}
	if r.Subject != "" {
		doc.Owner = map[string]any{"type": "developer", "id": r.Subject}
	}
	if v, ok := r.Query["use_colpali"]; ok {
		doc.AdditionalMetadata["use_colpali"] = v
	}
	if fields == nil {
		return doc, nil
	}

	if name := fields["filename"]; name != "" {
		doc.Filename = &name
	}
	if md != nil {
		doc.Metadata = md
	}
	if rules != nil {
		doc.AdditionalMetadata["rules"] = rules
	}
	if st := fields["update_strategy"]; st != "" {
		doc.AdditionalMetadata["update_strategy"] = st
	}

	doc.ChunkIDs = []string{uuid.NewString()}
	if r.File != nil {
		doc.StorageFiles = []model.StorageFile{{
			Bucket:      stubBucket,
			Key:         r.DocumentID + "/" + r.File.Filename,
			Version:     version,
			Filename:    r.File.Filename,
			ContentType: r.File.ContentType,
			Timestamp:   now,
		}}
	}
	return doc, nil
}
