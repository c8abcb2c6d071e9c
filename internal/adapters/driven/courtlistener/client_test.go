package courtlistener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(Config{BaseURL: srv.URL})
}

func searchBody(t *testing.T, results ...map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"results": results})
	require.NoError(t, err)
	return body
}

func TestSearchCases_HydratesOpinionText(t *testing.T) {
	var searchQuery string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/":
			searchQuery = r.URL.Query().Get("q")
			assert.Equal(t, "o", r.URL.Query().Get("type"))
			w.Write(searchBody(t, map[string]any{
				"caseName":     "Marbury v. Madison",
				"citation":     []string{"5 U.S. 137"},
				"court":        "scotus",
				"dateFiled":    "1803-02-24",
				"absolute_url": "/opinion/1/marbury-v-madison/",
				"opinions":     []map[string]any{{"id": 42, "snippet": "snippet"}},
			}))
		case "/opinions/42/":
			json.NewEncoder(w).Encode(opinionResult{PlainText: "It is emphatically the province of the judicial department."})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "judicial review"})
	require.NoError(t, err)
	require.Len(t, cases, 1)

	assert.Equal(t, "judicial review", searchQuery)
	assert.Equal(t, "Marbury v. Madison", cases[0].CaseName)
	assert.Equal(t, "5 U.S. 137", cases[0].Citation)
	assert.Equal(t, 1803, cases[0].Year)
	assert.Equal(t, "It is emphatically the province of the judicial department.", cases[0].FullText)
	assert.Equal(t, "https://www.courtlistener.com/opinion/1/marbury-v-madison/", cases[0].FullTextURL)
	assert.Zero(t, cases[0].ID)
}

func TestSearchCases_SkipsRecordsWithoutCitation(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchBody(t,
			map[string]any{
				"caseName":  "Unreported Matter",
				"citation":  []string{},
				"court":     "ca9",
				"dateFiled": "2001-05-01",
			},
			map[string]any{
				"caseName":  "Mapp v. Ohio",
				"citation":  []string{"367 U.S. 643"},
				"court":     "scotus",
				"dateFiled": "1961-06-19",
			},
		))
	})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "exclusionary rule"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Mapp v. Ohio", cases[0].CaseName)
}

func TestSearchCases_FallsBackToHTMLThenSnippet(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/":
			w.Write(searchBody(t, map[string]any{
				"caseName":  "Terry v. Ohio",
				"citation":  []string{"392 U.S. 1"},
				"court":     "scotus",
				"dateFiled": "1968-06-10",
				"opinions":  []map[string]any{{"id": 7, "snippet": "<em>stop and frisk</em> doctrine"}},
			}))
		case "/opinions/7/":
			json.NewEncoder(w).Encode(opinionResult{
				HTMLWithCitations: "<p>A police officer may <b>stop</b> a person.</p>",
			})
		}
	})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "stop and frisk"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "A police officer may stop a person.", cases[0].FullText)
}

func TestSearchCases_OpinionFailureUsesSnippet(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/":
			w.Write(searchBody(t, map[string]any{
				"caseName":  "Terry v. Ohio",
				"citation":  []string{"392 U.S. 1"},
				"court":     "scotus",
				"dateFiled": "1968-06-10",
				"opinions":  []map[string]any{{"id": 7, "snippet": "<em>stop and frisk</em> doctrine"}},
			}))
		case "/opinions/7/":
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "stop and frisk"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "stop and frisk doctrine", cases[0].FullText)
}

func TestSearchCases_MaxResultsTruncates(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/" {
			return
		}
		w.Write(searchBody(t,
			map[string]any{"caseName": "A v. B", "citation": []string{"1 U.S. 1"}, "dateFiled": "1990-01-01"},
			map[string]any{"caseName": "C v. D", "citation": []string{"2 U.S. 2"}, "dateFiled": "1991-01-01"},
			map[string]any{"caseName": "E v. F", "citation": []string{"3 U.S. 3"}, "dateFiled": "1992-01-01"},
		))
	})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "x", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, cases, 2)
}

func TestSearchCases_SendsTokenAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token sekrit", r.Header.Get("Authorization"))
		assert.Equal(t, "scotus", r.URL.Query().Get("court"))
		assert.Equal(t, "1950-01-01", r.URL.Query().Get("filed_after"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, Token: "sekrit"})

	cases, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{
		Search:  "due process",
		Court:   "scotus",
		MinYear: 1950,
	})
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestSearchCases_ServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchCases(context.Background(), driven.CaseSourceQuery{Search: "x"})
	assert.Error(t, err)
}

func TestYearFromDate(t *testing.T) {
	assert.Equal(t, 1803, yearFromDate("1803-02-24"))
	assert.Equal(t, 0, yearFromDate(""))
	assert.Equal(t, 0, yearFromDate("n/a"))
}
