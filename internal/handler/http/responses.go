package httphandler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"gameshelf/internal/catalog"
	"gameshelf/internal/entity"
)

// The response shapes mirror the wire formats the shop clients already
// speak. Several fields are deliberately redundant (title_id/titleid/titleId,
// version/ver, kind/type) because different client generations read
// different keys.

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status       string `json:"status"`
	CatalogFiles int    `json:"catalog_files"`
}

type apiEntry struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	TitleID      string             `json:"title_id"`
	TitleIDAlias string             `json:"titleid,omitempty"`
	TitleIDCamel string             `json:"titleId,omitempty"`
	Version      uint32             `json:"version"`
	Ver          uint32             `json:"ver"`
	Kind         entity.ContentKind `json:"kind"`
	Type         entity.ContentKind `json:"type"`
	Size         int64              `json:"size"`
	URL          string             `json:"url"`
}

type sectionInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type catalogResponse struct {
	Total       int           `json:"total"`
	Success     string        `json:"success"`
	Files       []apiEntry    `json:"files"`
	Directories []string      `json:"directories"`
	Entries     []apiEntry    `json:"entries"`
	Sections    []sectionInfo `json:"sections"`
}

type sectionsResponse struct {
	Sections []sectionInfo `json:"sections"`
}

type rootFile struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type rootResponse struct {
	Success bool       `json:"success"`
	Files   []rootFile `json:"files"`
}

type searchResponse struct {
	Query   string     `json:"query"`
	Success string     `json:"success"`
	Files   []apiEntry `json:"files"`
	Entries []apiEntry `json:"entries"`
}

type versionsResponse struct {
	TitleID string     `json:"title_id"`
	Files   []apiEntry `json:"files"`
}

type shopItem struct {
	Name          string `json:"name"`
	TitleName     string `json:"title_name"`
	TitleID       string `json:"title_id"`
	AppID         string `json:"app_id"`
	AppVersion    string `json:"app_version"`
	AppType       string `json:"app_type"`
	Category      string `json:"category"`
	IconURL       string `json:"icon_url"`
	IconURLCamel  string `json:"iconUrl"`
	URL           string `json:"url"`
	Size          int64  `json:"size"`
	FileID        int    `json:"file_id"`
	Filename      string `json:"filename"`
	DownloadCount int64  `json:"download_count"`
}

type shopSection struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Items     []shopItem `json:"items"`
	Total     *int       `json:"total,omitempty"`
	Truncated *bool      `json:"truncated,omitempty"`
}

type shopSectionsResponse struct {
	Sections []shopSection `json:"sections"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// An encoding failure here means the client went away.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func toAPIEntry(e *entity.ContentEntry) apiEntry {
	return apiEntry{
		ID:           e.RelativePath,
		Name:         e.Name,
		TitleID:      e.ContentID,
		TitleIDAlias: e.ContentID,
		TitleIDCamel: e.ContentID,
		Version:      e.Version,
		Ver:          e.Version,
		Kind:         e.Kind,
		Type:         e.Kind,
		Size:         e.Size,
		URL:          "/download/" + encodePath(e.RelativePath),
	}
}

func toAPIEntries(entries []*entity.ContentEntry) []apiEntry {
	out := make([]apiEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAPIEntry(e))
	}

	return out
}

func buildCatalogResponse(entries []apiEntry) catalogResponse {
	return catalogResponse{
		Total:       len(entries),
		Success:     "ok",
		Files:       entries,
		Directories: []string{},
		Entries:     entries,
		Sections:    sectionInfos(),
	}
}

func sectionInfos() []sectionInfo {
	infos := catalog.SectionInfos()
	out := make([]sectionInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, sectionInfo{ID: string(info.ID), Label: info.Label})
	}

	return out
}

func encodePath(relativePath string) string {
	segments := strings.Split(relativePath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}

func shopGameURL(fileID int, name string) string {
	return fmt.Sprintf("/api/get_game/%d#%s", fileID, name)
}

func appTypeFor(kind entity.ContentKind) string {
	switch kind {
	case entity.KindUpdate:
		return "UPDATE"
	case entity.KindDLC:
		return "DLC"
	default:
		return "BASE"
	}
}
