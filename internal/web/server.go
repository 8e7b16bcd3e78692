package web

import (
	"html/template"
	"log"
	"net/http"
	"strings"
)

// Server is the run history HTTP server
type Server struct {
	addr     string
	handlers *Handlers
	metrics  http.Handler
	mux      *http.ServeMux
}

// NewServer creates a new web server. metrics may be nil.
func NewServer(addr string, runs RunReader, metrics http.Handler) *Server {
	s := &Server{
		addr:     addr,
		handlers: NewHandlers(runs),
		metrics:  metrics,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// trailing slash enables prefix matching for /api/runs/:id
	s.mux.HandleFunc("/api/runs", s.corsMiddleware(s.routeRuns))
	s.mux.HandleFunc("/api/runs/", s.corsMiddleware(s.routeRuns))
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
	s.mux.HandleFunc("/", s.index)
}

// routeRuns routes requests to the appropriate handler based on the path
func (s *Server) routeRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/runs")
	if path == "" || path == "/" {
		s.handlers.ListRuns(w, r)
		return
	}
	s.handlers.GetRun(w, r)
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	runs, err := s.handlers.runs.History(r.Context(), defaultListLimit)
	if err != nil {
		http.Error(w, "Failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, runToSummary(run))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, summaries); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>flakeorder runs</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 40px; color: #333; }
        h1 { color: #2563eb; }
        table { border-collapse: collapse; }
        th, td { padding: 4px 12px; border-bottom: 1px solid #e5e7eb; text-align: left; }
        code { background: #f3f4f6; padding: 2px 6px; border-radius: 4px; }
    </style>
</head>
<body>
    <h1>Planning runs</h1>
    {{if .}}
    <table>
        <tr><th>Run</th><th>Status</th><th>Affected</th><th>Pairs</th><th>Schedules</th><th>Remaining</th><th>Square</th><th>Created</th></tr>
        {{range .}}
        <tr>
            <td><a href="/api/runs/{{.ID}}"><code>{{.ID}}</code></a></td>
            <td>{{.Status}}</td>
            <td>{{.AffectedCount}}/{{.UniverseSize}}</td>
            <td>{{.PairCount}}</td>
            <td>{{.ScheduleCount}}</td>
            <td>{{.RemainingPairs}}</td>
            <td>{{.Construction}}</td>
            <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p>No runs recorded yet. Run <code>flakeorder plan</code> to create one.</p>
    {{end}}
</body>
</html>
`))
