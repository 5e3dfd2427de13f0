package testsuite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legacyport/internal/types"
)

func TestBuild_NoRoutesKeepsLivenessTest(t *testing.T) {
	out, err := Build(types.NewAnalysisResult(nil, nil, nil, 0))
	require.NoError(t, err)
	assert.Contains(t, out, "from main import app\n")
	assert.Contains(t, out, "def test_root():\n")
	assert.Equal(t, 1, strings.Count(out, "\ndef test_"))
}

func TestBuild_OneTestPerRoute(t *testing.T) {
	routes := []types.Route{
		{Method: types.MethodGet, Path: "/users/:id"},
		{Method: types.MethodPost, Path: "/users"},
		{Method: types.MethodPost, Path: "/users"},
		{Method: types.MethodPatch, Path: "/orders/{order}/items/{item}"},
	}
	out, err := Build(types.NewAnalysisResult(routes, nil, nil, 1))
	require.NoError(t, err)

	assert.Equal(t, len(routes)+1, strings.Count(out, "\ndef test_"))
	assert.Contains(t, out, "\ndef test_get_users_id():\n"+
		"    \"\"\"Test GET /users/:id\"\"\"\n"+
		"    response = client.get(\"/users/1\")\n"+
		"    assert response.status_code in [200, 404]  # Allow 404 for unimplemented\n")
	assert.Contains(t, out, "\ndef test_post_users():\n")
	assert.Contains(t, out, "\ndef test_post_users_2():\n")
	assert.Contains(t, out, "client.patch(\"/orders/1/items/1\")")

	assert.Less(t, strings.Index(out, "test_get_users_id"), strings.Index(out, "test_post_users"))
}

func TestCases_TestPathReplacesEveryToken(t *testing.T) {
	cases := Cases([]types.Route{{Method: types.MethodDelete, Path: "/a/:x/b/{y}"}})
	require.Len(t, cases, 1)
	assert.Equal(t, "/a/1/b/1", cases[0].TestPath)
	assert.Equal(t, "delete", cases[0].Method)
	assert.Equal(t, "DELETE", cases[0].Verb)
}
