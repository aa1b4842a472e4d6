package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// clientApp serves the built browser client. Paths that do not name a file
// fall back to index.html so client-side routes survive a reload.
func (s *Server) clientApp() http.HandlerFunc {
	root := s.clientDist
	fileServer := http.FileServer(http.Dir(root))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}
		if root == "" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}

		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
