package httpserver

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("January 2, 2006 3:04 PM") },
	"score": func(v float64) string {
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
	},
}

type pages struct {
	index   *template.Template
	result  *template.Template
	history *template.Template
}

func loadPages() *pages {
	parse := func(name string) *template.Template {
		return template.Must(template.New("layout.html").Funcs(pageFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/analysis.html", "templates/"+name))
	}
	return &pages{
		index:   parse("index.html"),
		result:  parse("result.html"),
		history: parse("history.html"),
	}
}

type pageData struct {
	Title     string
	Error     string
	Analysis  *domain.Record
	Entries   []domain.HistoryEntry
	StartDate string
	EndDate   string
}

func render(w http.ResponseWriter, t *template.Template, code int, data pageData) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log.Printf("render %s: %v", data.Title, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}

// GET /
func (r *Router) handleIndexPage(w http.ResponseWriter, req *http.Request) {
	render(w, r.pages.index, http.StatusOK, pageData{Title: "Analyze"})
}

// POST /analyze (multipart form, field "image")
func (r *Router) handleAnalyzePage(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBody)

	img, err := formImage(req)
	if err != nil {
		code, msg := statusFor(err)
		render(w, r.pages.index, code, pageData{Title: "Analyze", Error: msg})
		return
	}

	rec, err := r.svc.Analyze(req.Context(), img)
	if err != nil {
		code, msg := statusFor(err)
		render(w, r.pages.index, code, pageData{Title: "Analyze", Error: msg})
		return
	}
	render(w, r.pages.result, http.StatusOK, pageData{Title: "Analysis Complete", Analysis: &rec})
}

// GET /history?start_date=&end_date=
func (r *Router) handleHistoryPage(w http.ResponseWriter, req *http.Request) {
	data := pageData{
		Title:     "Your Analysis History",
		StartDate: req.URL.Query().Get("start_date"),
		EndDate:   req.URL.Query().Get("end_date"),
	}
	entries, err := r.history(req)
	if err != nil {
		code, msg := statusFor(err)
		data.Error = msg
		render(w, r.pages.history, code, data)
		return
	}
	data.Entries = entries
	render(w, r.pages.history, http.StatusOK, data)
}

func formImage(req *http.Request) (domain.Image, error) {
	file, header, err := req.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return domain.Image{}, domain.ErrImageRequired
	}
	if err != nil {
		return domain.Image{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Image{}, err
	}
	if len(data) == 0 {
		return domain.Image{}, domain.ErrImageRequired
	}

	var mime string
	if ct := header.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		mime = ct
	}
	return domain.NewImage(data, mime), nil
}
