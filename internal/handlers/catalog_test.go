package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lembar-pintar/studio/internal/domain"
)

type listingEnvelope struct {
	Pagination struct {
		Page  int `json:"page"`
		Pages int `json:"pages"`
		Total int `json:"total"`
	} `json:"pagination"`
}

func TestCatalogListElements(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/elements?category=icons", "", nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	var body struct {
		listingEnvelope
		Items []domain.Element `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.body, &body))
	require.Len(t, body.Items, 2)
	require.Equal(t, "el-pencil", body.Items[0].ID)
	require.Equal(t, 1, body.Pagination.Page)
	require.Equal(t, 1, body.Pagination.Pages)
	require.Equal(t, 2, body.Pagination.Total)
}

func TestCatalogListPaginates(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/elements?limit=2&page=3", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	var body struct {
		listingEnvelope
		Items []domain.Element `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.body, &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, 3, body.Pagination.Page)
	require.Equal(t, 3, body.Pagination.Pages)
	require.Equal(t, 5, body.Pagination.Total)
}

func TestCatalogListEnvelopeKeys(t *testing.T) {
	env := newTestEnv(t)

	templates := env.do(t, http.MethodGet, "/api/templates?level=sd", "", nil).json(t)
	require.Contains(t, templates, "data")
	require.Len(t, templates["data"], 2)

	photos := env.do(t, http.MethodGet, "/api/photos?search=sawah", "", nil).json(t)
	require.Contains(t, photos, "files")
	require.Len(t, photos["files"], 1)

	empty := env.do(t, http.MethodGet, "/api/photos?search=tidakada", "", nil).json(t)
	require.Equal(t, []any{}, empty["files"], "an empty result is a list, not null")
}

func TestCatalogInvalidPagination(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"page=0", "page=abc", "limit=-1", "limit=101"} {
		res := env.do(t, http.MethodGet, "/api/elements?"+q, "", nil)
		require.Equal(t, http.StatusBadRequest, res.status, q)
		require.Equal(t, "invalid_pagination", res.json(t)["error"], q)
	}
}

func TestCatalogElementDetail(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/elements/el-star/detail", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	body := res.json(t)
	require.Equal(t, true, body["success"])
	require.Equal(t, "el-star", body["data"].(map[string]any)["id"])

	missing := env.do(t, http.MethodGet, "/api/elements/nope/detail", "", nil)
	require.Equal(t, http.StatusNotFound, missing.status)
	require.Equal(t, "element_not_found", missing.json(t)["error"])
}

func TestCatalogLoadTemplateRepairsPages(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/templates/tpl-berhitung/load", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.body, &body))
	require.True(t, body.Success)
	require.Equal(t, 1, domain.PageCount(body.Data))

	draft := env.do(t, http.MethodGet, "/api/templates/tpl-draft-pecahan/load", "", nil)
	require.Equal(t, http.StatusNotFound, draft.status, "drafts are not public")
}

func TestCatalogFacets(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/facets", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	var set domain.FacetOptionSet
	require.NoError(t, json.Unmarshal(res.body, &set))
	require.Len(t, set.Levels, 3)
	require.NotEmpty(t, set.Grades)
	require.NotEmpty(t, set.Subjects)
	require.NotEmpty(t, set.Categories)
}

func TestCatalogQR(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/qr?data=https%3A%2F%2Fstudio.test%2Fx&size=200", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	u, _ := res.json(t)["url"].(string)
	require.True(t, strings.HasPrefix(u, "https://qr.test/create?"), u)
	require.Contains(t, u, "size=200x200")

	for _, q := range []string{"", "data=x&size=abc", "data=x&size=10"} {
		bad := env.do(t, http.MethodGet, "/api/qr?"+q, "", nil)
		require.Equal(t, http.StatusBadRequest, bad.status, q)
	}
}
