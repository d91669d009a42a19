package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Dregen-Yor/auto-invoice/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportDetails(w http.ResponseWriter, r *http.Request) {
	data, err := s.exports.DetailWorkbook()
	if err != nil {
		s.logger.Error("detail export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, r, data, export.DefaultDetailFilename)
}

func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	data, err := s.exports.SummaryWorkbook()
	if err != nil {
		s.logger.Error("summary export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, r, data, export.DefaultSummaryFilename)
}

func serveWorkbook(w http.ResponseWriter, r *http.Request, data []byte, defaultName string) {
	name := exportFilename(r.URL.Query().Get("filename"), defaultName)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// exportFilename sanitizes a caller-supplied name, appending the extension
// when missing.
func exportFilename(requested, fallback string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		return fallback
	}
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\"", "_")
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}
