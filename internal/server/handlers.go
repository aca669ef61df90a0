package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindgraph/pkg/document"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/generate"
	"github.com/matzehuels/mindgraph/pkg/logic"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/session"
)

// Form field names.
const (
	fieldTopic    = "topic"
	fieldDocument = "document"
)

// maxFormMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const maxFormMemory = 8 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, document.MaxSize+1<<20)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderError(w, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "could not read the upload"))
		return
	}
	topic := r.FormValue(fieldTopic)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	text, err := s.readDocument(ctx, r)
	if err != nil {
		s.renderError(w, topic, err)
		return
	}

	res, err := s.gen.Generate(ctx, generate.Request{Topic: topic, Document: text})
	if err != nil {
		s.renderError(w, topic, err)
		return
	}

	var logicOut *logic.Output
	if res.Diagram != nil {
		logicOut, err = logic.Render(ctx, res.Diagram, s.logicOptions()...)
		if err != nil {
			s.logger.Warn("logic diagram not rendered", "request_id", res.RequestID, "error", err)
			logicOut = nil
		}
	}

	v := session.New(res, logicOut, s.cfg.ViewTTL, s.mindmapOptions()...)
	if err := s.views.Set(ctx, v); err != nil {
		s.renderError(w, topic, errs.Wrap(errs.ErrCodeInternal, err, "could not keep the result"))
		return
	}
	s.logger.Info("view created", "view", v.ID, "request_id", res.RequestID, "diagram", v.HasDiagram())
	http.Redirect(w, r, "/view/"+v.ID, http.StatusSeeOther)
}

// readDocument extracts the uploaded document, or returns "" when none
// was chosen.
func (s *Server) readDocument(ctx context.Context, r *http.Request) (string, error) {
	file, header, err := r.FormFile(fieldDocument)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "could not read the upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "could not read the upload")
	}
	if len(data) == 0 {
		return "", nil
	}
	return s.docs.Extract(ctx, header.Filename, data)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	tab := tabMindMap
	if r.URL.Query().Get("tab") == tabLogic && v.HasDiagram() {
		tab = tabLogic
	}
	s.renderPage(w, http.StatusOK, pageData{
		Topic: v.Result.Tree.Root.Name,
		View:  v,
		Tab:   tab,
	})
}

func (s *Server) handleMindMapSVG(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeSVG(w, v.MindMapSVG())
}

func (s *Server) handleLogicSVG(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	if !v.HasDiagram() {
		http.Error(w, "no logic diagram", http.StatusNotFound)
		return
	}
	writeSVG(w, v.Logic.SVG)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil {
		http.Error(w, "invalid node id", http.StatusBadRequest)
		return
	}
	frame, err := v.Toggle(mindmap.NodeID(id))
	if errors.Is(err, mindmap.ErrUnknownNode) {
		http.Error(w, "unknown node", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeSVG(w, frame)
}

// view looks up the view named in the URL, answering 404 itself.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*session.View, bool) {
	v, err := s.views.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "this diagram has expired, generate it again", http.StatusNotFound)
		return nil, false
	}
	return v, true
}

func (s *Server) renderError(w http.ResponseWriter, topic string, err error) {
	s.logger.Warn("generation failed", "code", errs.GetCode(err), "error", err)
	s.renderPage(w, statusFor(err), pageData{
		Topic:      topic,
		Error:      errs.UserMessage(err),
		ErrorTitle: errorTitle(err),
	})
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errs.ErrCodeUnsupportedFile:
		return http.StatusUnsupportedMediaType
	case errs.ErrCodeDocumentParse:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeNetwork, errs.ErrCodeGenerationFailed, errs.ErrCodeContractViolation:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorTitle(err error) string {
	switch {
	case errs.IsDocumentError(err):
		return "Could not read the document"
	case errs.Is(err, errs.ErrCodeInvalidInput):
		return "Nothing to generate"
	case errs.IsRetryable(err):
		return "The AI service is busy, try again"
	}
	return "Generation failed"
}
