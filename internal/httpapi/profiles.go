package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"vigil-backend/internal/profiles"

	"github.com/go-chi/chi/v5"
)

type profileJson struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	GithubUrl             string     `json:"github_url"`
	ShortCode             *string    `json:"short_code"`
	ShortUrl              *string    `json:"short_url"`
	GithubUsername        *string    `json:"github_username"`
	FollowersCount        int        `json:"followers_count"`
	FollowingCount        int        `json:"following_count"`
	StarsCount            int        `json:"stars_count"`
	ContributionsLastYear int        `json:"contributions_last_year"`
	AvatarUrl             *string    `json:"avatar_url"`
	Organization          *string    `json:"organization"`
	Location              *string    `json:"location"`
	LastScannedAt         *time.Time `json:"last_scanned_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type metaJson struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h handler) shortUrl(code string) *string {
	if code == "" {
		return nil
	}
	url := h.baseUrl + "/p/" + code
	return &url
}

func (h handler) toJson(p profiles.Profile) profileJson {
	out := profileJson{
		ID:                    p.ID,
		Name:                  p.Name,
		GithubUrl:             p.GithubUrl,
		ShortCode:             optional(p.ShortCode),
		ShortUrl:              h.shortUrl(p.ShortCode),
		GithubUsername:        optional(p.GithubUsername),
		FollowersCount:        p.FollowersCount,
		FollowingCount:        p.FollowingCount,
		StarsCount:            p.StarsCount,
		ContributionsLastYear: p.ContributionsLastYear,
		AvatarUrl:             optional(p.AvatarUrl),
		Organization:          optional(p.Organization),
		Location:              optional(p.Location),
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if !p.LastScannedAt.IsZero() {
		scanned := p.LastScannedAt
		out.LastScannedAt = &scanned
	}
	return out
}

// queryInt is lenient like most form parsers, anything unparsable is 0.
func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func pathId(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, profiles.ErrNotFound
	}
	return id, nil
}

type listResponse struct {
	Profiles []profileJson `json:"profiles"`
	Meta     metaJson      `json:"meta"`
}

func (h handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), profiles.ListInput{
		Query:   r.URL.Query().Get("q"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}, profiles.ApiMaxPerPage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := listResponse{
		Profiles: make([]profileJson, len(result.Profiles)),
		Meta:     metaJson(result.Meta),
	}
	for i, p := range result.Profiles {
		out.Profiles[i] = h.toJson(p)
	}
	writeJSON(w, http.StatusOK, out)
}

type showResponse struct {
	Profile profileJson `json:"profile"`
	Meta    metaJson    `json:"meta"`
}

func (h handler) showProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	profile, err := h.service.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, showResponse{
		Profile: h.toJson(profile),
		Meta:    metaJson{CurrentPage: 1, PerPage: 1, TotalPages: 1, TotalCount: 1},
	})
}

type createRequest struct {
	Name      string `json:"name"`
	GithubUrl string `json:"github_url"`
}

type createResponse struct {
	Profile       profileJson `json:"profile"`
	ScrapeSuccess bool        `json:"scrape_success"`
	ScrapeMessage *string     `json:"scrape_message"`
}

func (h handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Create(r.Context(), profiles.Input{
		Name:      req.Name,
		GithubUrl: req.GithubUrl,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{
		Profile:       h.toJson(result.Profile),
		ScrapeSuccess: result.ScrapeSuccess(),
		ScrapeMessage: optional(result.ScrapeMessage()),
	})
}

type rescanResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h handler) rescanProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.service.Rescan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rescanResponse{Success: result.Success, Message: result.Message})
}
