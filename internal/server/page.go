package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/matzehuels/mindgraph/pkg/session"
	"github.com/matzehuels/mindgraph/pkg/svg"
)

// Tab names.
const (
	tabMindMap = "mindmap"
	tabLogic   = "logic"
)

// acceptTypes restricts the file picker to text and PDF.
const acceptTypes = ".txt,.pdf,text/plain,application/pdf"

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Topic      string
	Error      string
	ErrorTitle string
	View       *session.View
	Tab        string
}

// pageView is what the template sees.
type pageView struct {
	pageData
	Accept     string
	ZoomScript template.JS
	MindMap    template.HTML
	Logic      template.HTML
}

func (s *Server) renderPage(w http.ResponseWriter, status int, d pageData) {
	pv := pageView{
		pageData:   d,
		Accept:     acceptTypes,
		ZoomScript: template.JS(svg.ZoomScript),
	}
	if d.View != nil {
		// Both documents are produced by our own renderers, which escape
		// every label.
		pv.MindMap = template.HTML(d.View.MindMapSVG())
		if d.View.HasDiagram() {
			pv.Logic = template.HTML(d.View.Logic.SVG)
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pv); err != nil {
		s.logger.Error("page template failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
