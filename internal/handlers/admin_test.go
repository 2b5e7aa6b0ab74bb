package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/admin/assets", "", nil).status)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/admin/assets", userToken, nil).status)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/admin/assets", adminToken, nil).status)
}

func TestAdminAssetLifecycle(t *testing.T) {
	env := newTestEnv(t)

	create := map[string]any{
		"name":        "Logo Sekolah",
		"type":        "image",
		"category":    "branding",
		"fileName":    "logo sekolah.png",
		"contentType": "image/png",
		"size":        2048,
	}
	res := env.do(t, http.MethodPost, "/api/admin/assets", adminToken, create, "Idempotency-Key", "asset-1")
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	body := res.json(t)
	asset := body["data"].(map[string]any)
	id := asset["id"].(string)
	require.True(t, strings.HasPrefix(id, "ast_"), id)
	upload := body["upload"].(map[string]any)
	require.Equal(t, http.MethodPut, upload["method"])
	require.True(t, strings.HasPrefix(upload["url"].(string), "https://upload.test/assets/"))

	replay := env.do(t, http.MethodPost, "/api/admin/assets", adminToken, create, "Idempotency-Key", "asset-1")
	require.Equal(t, http.StatusCreated, replay.status)
	require.Equal(t, "true", replay.header.Get("X-Idempotent-Replay"))
	require.Equal(t, id, replay.json(t)["data"].(map[string]any)["id"], "replay returns the original asset")

	conflict := env.do(t, http.MethodPost, "/api/admin/assets", adminToken, map[string]any{"name": "lain"}, "Idempotency-Key", "asset-1")
	require.Equal(t, http.StatusConflict, conflict.status)

	list := env.do(t, http.MethodGet, "/api/admin/assets?category=branding&type=image", adminToken, nil).json(t)
	require.Len(t, list["files"], 2)

	res = env.do(t, http.MethodPut, "/api/admin/assets/"+id, adminToken, map[string]any{"name": "Logo Baru", "tags": []string{"logo"}})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	updated := res.json(t)["data"].(map[string]any)
	require.Equal(t, "Logo Baru", updated["name"])
	require.Equal(t, "branding", updated["category"], "omitted fields are kept")

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/admin/assets/"+id, adminToken, nil).status)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/admin/assets/"+id, adminToken, nil).status)
}

func TestAdminAssetValidation(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/admin/assets", adminToken, map[string]any{
		"name": "Virus", "type": "image", "fileName": "x.exe", "contentType": "application/x-msdownload", "size": 10,
	})
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, "invalid_input", res.json(t)["error"])
}

func TestAdminTemplateLifecycle(t *testing.T) {
	env := newTestEnv(t)

	drafts := env.do(t, http.MethodGet, "/api/admin/templates?status=draft", adminToken, nil).json(t)
	require.Len(t, drafts["data"], 1, "admins see drafts")

	res := env.do(t, http.MethodPost, "/api/admin/templates", adminToken, map[string]any{
		"title":    "Mengenal Warna",
		"level":    "TK",
		"gradeId":  "tk-a",
		"document": map[string]any{"width": 1080, "height": 1080, "pages": []any{map[string]any{"id": "p1"}}},
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	tpl := res.json(t)["data"].(map[string]any)
	id := tpl["id"].(string)
	require.Equal(t, "draft", tpl["status"])
	require.Equal(t, "tk", tpl["level"])
	require.EqualValues(t, 1080, tpl["width"])

	res = env.do(t, http.MethodPut, "/api/admin/templates/"+id, adminToken, map[string]any{"title": "Mengenal Warna", "level": "tk", "status": "published"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	require.Equal(t, "published", res.json(t)["data"].(map[string]any)["status"])

	load := env.do(t, http.MethodGet, "/api/templates/"+id+"/load", "", nil)
	require.Equal(t, http.StatusOK, load.status, "the document survives an update without one")

	bad := env.do(t, http.MethodPut, "/api/admin/templates/"+id, adminToken, map[string]any{"title": "x", "status": "archived"})
	require.Equal(t, http.StatusBadRequest, bad.status)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/admin/templates/"+id, adminToken, nil).status)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/templates/"+id+"/load", "", nil).status)
}
