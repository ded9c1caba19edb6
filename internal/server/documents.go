package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"pdf-chat/internal/config"
	"pdf-chat/internal/db"
	"pdf-chat/internal/helper"
	"pdf-chat/internal/models"
	"pdf-chat/internal/parser"
)

// Ingestor processes an uploaded file into the vector index
type Ingestor interface {
	Ingest(ctx context.Context, doc *db.Document, path string) error
	Remove(ctx context.Context, documentID string) error
}

// Answerer answers a question against one document
type Answerer interface {
	Query(ctx context.Context, documentID, question string, history []models.Turn, streamFn func(ctx context.Context, chunk []byte) error) (*models.Answer, error)
}

type DocumentsHandler struct {
	Cfg      *config.Config
	Store    db.Store
	Ingestor Ingestor
	Answerer Answerer
}

func (h *DocumentsHandler) Register(g *echo.Group) {
	g.POST("/documents", h.upload)
	g.GET("/documents", h.list)
	g.GET("/documents/:id", h.get)
	g.DELETE("/documents/:id", h.remove)
	g.POST("/documents/:id/ask", h.ask)
	g.GET("/documents/:id/messages", h.messages)
}

func (h *DocumentsHandler) upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fileHeader.Size > h.Cfg.Server.MaxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.Cfg.Server.MaxUploadSize))
	}
	filename := helper.SanitizeFilename(fileHeader.Filename)
	if !parser.SupportedExt(filename) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported file format: %s", filepath.Ext(filename)))
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return err
	}

	if err := helper.CreateFolder(h.Cfg.Server.UploadDir); err != nil {
		return err
	}
	path := filepath.Join(h.Cfg.Server.UploadDir, id+"_"+filename)
	if err := saveUpload(fileHeader, path); err != nil {
		return err
	}

	doc := &db.Document{
		ID:         id,
		Filename:   filename,
		Status:     models.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateDocument(c.Request().Context(), doc); err != nil {
		return err
	}

	if err := h.Ingestor.Ingest(c.Request().Context(), doc, path); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	log.Info().Str("document_id", doc.ID).Str("filename", filename).Int("chunks", doc.Chunks).Msg("Document ready")
	return c.JSON(http.StatusCreated, toInfo(doc))
}

func (h *DocumentsHandler) list(c echo.Context) error {
	docs, err := h.Store.ListDocuments(c.Request().Context())
	if err != nil {
		return err
	}
	infos := make([]models.DocumentInfo, len(docs))
	for i := range docs {
		infos[i] = toInfo(&docs[i])
	}
	return c.JSON(http.StatusOK, infos)
}

func (h *DocumentsHandler) get(c echo.Context) error {
	doc, err := h.Store.GetDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return documentLookupError(err)
	}
	return c.JSON(http.StatusOK, toInfo(doc))
}

func (h *DocumentsHandler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Store.GetDocument(ctx, c.Param("id")); err != nil {
		return documentLookupError(err)
	}
	if err := h.Ingestor.Remove(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type askRequest struct {
	Question string `json:"question"`
	Stream   bool   `json:"stream"`
}

type askResponse struct {
	Answer     string             `json:"answer"`
	AnswerHTML string             `json:"answer_html"`
	Sources    []models.SourceRef `json:"sources"`
}

func (h *DocumentsHandler) ask(c echo.Context) error {
	ctx := c.Request().Context()
	documentID := c.Param("id")

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	doc, err := h.Store.GetDocument(ctx, documentID)
	if err != nil {
		return documentLookupError(err)
	}
	if doc.Status != models.StatusReady {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("document is %s", doc.Status))
	}

	history, err := h.history(ctx, documentID)
	if err != nil {
		return err
	}

	if req.Stream {
		return h.askStream(c, documentID, req.Question, history)
	}

	answer, err := h.Answerer.Query(ctx, documentID, req.Question, history, nil)
	if err != nil {
		return err
	}

	if err := h.persistTurn(ctx, documentID, req.Question, answer.Content); err != nil {
		return err
	}

	html, err := renderMarkdown(answer.Content)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to render answer markdown")
		html = answer.Content
	}
	return c.JSON(http.StatusOK, askResponse{
		Answer:     answer.Content,
		AnswerHTML: html,
		Sources:    answer.Sources,
	})
}

// askStream writes the answer as server-sent events while it generates,
// then a sources event and a terminating [DONE]
func (h *DocumentsHandler) askStream(c echo.Context, documentID, question string, history []models.Turn) error {
	ctx := c.Request().Context()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.WriteHeader(http.StatusOK)

	streamFn := func(_ context.Context, chunk []byte) error {
		data, err := json.Marshal(map[string]string{"content": string(chunk)})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
			return err
		}
		res.Flush()
		return nil
	}

	answer, err := h.Answerer.Query(ctx, documentID, question, history, streamFn)
	if err != nil {
		// headers already sent, best we can do is an error event
		fmt.Fprintf(res, "event: error\ndata: %s\n\n", err.Error())
		res.Flush()
		return nil
	}

	if err := h.persistTurn(ctx, documentID, question, answer.Content); err != nil {
		log.Error().Err(err).Str("document_id", documentID).Msg("Failed to persist chat turn")
	}

	if data, err := json.Marshal(answer.Sources); err == nil {
		fmt.Fprintf(res, "event: sources\ndata: %s\n\n", data)
	}
	fmt.Fprint(res, "data: [DONE]\n\n")
	res.Flush()
	return nil
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *DocumentsHandler) messages(c echo.Context) error {
	ctx := c.Request().Context()
	documentID := c.Param("id")
	if _, err := h.Store.GetDocument(ctx, documentID); err != nil {
		return documentLookupError(err)
	}
	msgs, err := h.Store.ListMessages(ctx, documentID, 0)
	if err != nil {
		return err
	}
	out := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = messageResponse{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	}
	return c.JSON(http.StatusOK, out)
}

// history replays the most recent stored messages as question/answer turns
func (h *DocumentsHandler) history(ctx context.Context, documentID string) ([]models.Turn, error) {
	// two messages per turn
	msgs, err := h.Store.ListMessages(ctx, documentID, h.Cfg.RAG.HistoryTurns*2)
	if err != nil {
		return nil, err
	}
	var turns []models.Turn
	var pending string
	for _, m := range msgs {
		switch m.Role {
		case models.RoleUser:
			pending = m.Content
		case models.RoleAssistant:
			if pending != "" {
				turns = append(turns, models.Turn{Question: pending, Answer: m.Content})
				pending = ""
			}
		}
	}
	return turns, nil
}

func (h *DocumentsHandler) persistTurn(ctx context.Context, documentID, question, answer string) error {
	now := time.Now().UTC()
	if err := h.Store.AppendMessage(ctx, &db.ChatMessage{
		DocumentID: documentID,
		Role:       models.RoleUser,
		Content:    question,
		CreatedAt:  now,
	}); err != nil {
		return err
	}
	return h.Store.AppendMessage(ctx, &db.ChatMessage{
		DocumentID: documentID,
		Role:       models.RoleAssistant,
		Content:    answer,
		CreatedAt:  now,
	})
}

// documentLookupError keeps 404 for genuinely missing documents but lets
// store failures surface as 500s
func documentLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	return err
}

func toInfo(doc *db.Document) models.DocumentInfo {
	return models.DocumentInfo{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Pages:      doc.Pages,
		Chunks:     doc.Chunks,
		Status:     doc.Status,
		UploadedAt: doc.UploadedAt,
	}
}

func saveUpload(fileHeader *multipart.FileHeader, path string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
