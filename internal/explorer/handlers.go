package explorer

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/query"
)

// PageResponse is the JSON rendering of one fetched page
type PageResponse struct {
	QueryID    string          `json:"query_id"`
	Endpoint   string          `json:"endpoint"`
	Offset     int             `json:"offset"`
	Limit      int             `json:"limit"`
	Total      int             `json:"total"`
	Count      int             `json:"count"`
	Complete   bool            `json:"complete"`
	Next       string          `json:"next,omitempty"`
	Results    []ItemView      `json:"results"`
	Discovered []DiscoveryView `json:"discovered,omitempty"`
}

// ItemView is one result with its navigable fields rendered as links
type ItemView struct {
	ID     int               `json:"id"`
	Name   string            `json:"name,omitempty"`
	Self   string            `json:"self,omitempty"`
	Links  map[string]string `json:"links,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	Data   map[string]any    `json:"data"`
}

// DiscoveryView is one entry of the page's discovery summary
type DiscoveryView struct {
	Endpoint string `json:"endpoint"`
	Name     string `json:"name,omitempty"`
	Href     string `json:"href"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	raw := apiQuery(r)
	q, err := s.client.QueryPath(routePath(r), params.FromQuery(raw))
	if err != nil {
		renderQueryError(w, err)
		return
	}

	if _, err := q.Fetch(r.Context()); err != nil {
		renderQueryError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, pageResponse(q, raw))
}

// routePath joins the chi route parameters into a "type/id/subtype" path
func routePath(r *http.Request) string {
	parts := []string{chi.URLParam(r, "type")}
	for _, name := range []string{"id", "sub"} {
		if v := chi.URLParam(r, name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "/")
}

// apiQuery returns the request query without the keys the explorer itself
// consumes
func apiQuery(r *http.Request) url.Values {
	raw := url.Values{}
	for k, v := range r.URL.Query() {
		switch k {
		case "token", "max_pages":
			continue
		}
		raw[k] = v
	}
	return raw
}

func pageResponse(q *query.Query, raw url.Values) PageResponse {
	history := q.History()
	page := history[len(history)-1]

	resp := PageResponse{
		QueryID:  q.ID(),
		Endpoint: q.Endpoint().Path(),
		Offset:   page.Offset,
		Limit:    page.Limit,
		Total:    page.Total,
		Count:    page.Count,
		Complete: q.IsComplete(),
		Results:  make([]ItemView, 0, len(page.Items)),
	}
	if !q.IsComplete() {
		next := url.Values{}
		for k, v := range raw {
			next[k] = v
		}
		next.Set("offset", strconv.Itoa(q.Offset()))
		resp.Next = href(q.Endpoint()) + "?" + next.Encode()
	}

	for _, item := range page.Items {
		resp.Results = append(resp.Results, itemView(item))
	}
	for _, e := range page.Discovered {
		resp.Discovered = append(resp.Discovered, DiscoveryView{
			Endpoint: e.Endpoint.Path(),
			Name:     e.Name,
			Href:     href(e.Endpoint),
		})
	}
	return resp
}

func itemView(item *query.Item) ItemView {
	view := ItemView{
		ID:   item.ID,
		Name: item.Name(),
		Data: item.Data,
	}
	if item.Err() == nil {
		view.Self = href(item.Endpoint())
	}

	if links := item.Links(); len(links) > 0 {
		view.Links = make(map[string]string, len(links))
		for field, ep := range links {
			view.Links[field] = href(ep)
		}
	}
	if stubs := item.Stubs(); len(stubs) > 0 {
		view.Errors = make(map[string]string, len(stubs))
		for field, err := range stubs {
			view.Errors[field] = err.Error()
		}
	}
	return view
}

func href(ep endpoint.Endpoint) string {
	return "/api/" + ep.Path()
}
