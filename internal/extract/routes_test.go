package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legacyport/internal/types"
)

func TestRoutes_DSLFamilyResolvesHandler(t *testing.T) {
	src := `<?php
Route::get('/users', 'UserController@index');
Route::POST("/users/{id}", "UserController@update");
Route::delete('/ping', function () { return 'pong'; });
`
	routes := Routes(src, "routes/web.php")
	require.Len(t, routes, 3)

	assert.Equal(t, types.Route{
		Method:     types.MethodGet,
		Path:       "/users",
		SourceFile: "routes/web.php",
		Framework:  types.FrameworkLaravel,
		Handler:    "UserController.index",
	}, routes[0])
	assert.Equal(t, types.MethodPost, routes[1].Method)
	assert.Equal(t, "/users/{id}", routes[1].Path)
	assert.Equal(t, "UserController.update", routes[1].Handler)
	assert.Equal(t, types.HandlerUnknown, routes[2].Handler)
}

func TestRoutes_HandlerWindowIsBounded(t *testing.T) {
	src := "Route::get('/far', function () {});" + string(make([]byte, 300)) + "'FarController@show'"
	routes := Routes(src, "a.php")
	require.Len(t, routes, 1)
	assert.Equal(t, types.HandlerUnknown, routes[0].Handler)
}

func TestRoutes_ObjectFamilyIsInline(t *testing.T) {
	src := `<?php
$app->get('/books/:id', function ($req, $res, $args) {});
$app->Put('/books/:id', 'BookController@update');
$router->get('/ignored', function () {});
`
	routes := Routes(src, "index.php")
	require.Len(t, routes, 2)
	for _, r := range routes {
		assert.Equal(t, types.FrameworkSlim, r.Framework)
		assert.Equal(t, types.HandlerInline, r.Handler)
	}
	assert.Equal(t, types.MethodPut, routes[1].Method)
}

func TestRoutes_PlainFamilyNeedsTrigger(t *testing.T) {
	without := `<?php echo "/home"; echo '/about';`
	assert.Empty(t, Routes(without, "a.php"))

	with := `<?php
$uri = $_SERVER['REQUEST_URI'];
if ($uri == '/home') {}
if ($uri == "/admin/users") {}
if ($uri == '/home') {}
`
	routes := Routes(with, "a.php")
	require.Len(t, routes, 2)
	assert.Equal(t, "/home", routes[0].Path)
	assert.Equal(t, "/admin/users", routes[1].Path)
	for _, r := range routes {
		assert.Equal(t, types.MethodGet, r.Method)
		assert.Equal(t, types.FrameworkPlain, r.Framework)
		assert.Equal(t, types.HandlerUnknown, r.Handler)
	}
}

func TestRoutes_FamiliesAreNotDeduplicatedAgainstEachOther(t *testing.T) {
	src := `<?php
// REQUEST_METHOD
Route::get('/users', 'UserController@index');
`
	routes := Routes(src, "a.php")
	require.Len(t, routes, 2)
	assert.Equal(t, types.FrameworkLaravel, routes[0].Framework)
	assert.Equal(t, types.FrameworkPlain, routes[1].Framework)
	assert.Equal(t, routes[0].Path, routes[1].Path)
}

func TestRoutePatterns_ConfigurableCallees(t *testing.T) {
	src := `<?php
Router::get('/a', 'AController@a');
$api->post('/b', function () {});
Route::get('/c', 'CController@c');
`
	p := newRoutePatterns([]string{"Router"}, []string{"api"})
	routes := p.extract(src, "a.php")
	require.Len(t, routes, 2)
	assert.Equal(t, "/a", routes[0].Path)
	assert.Equal(t, "/b", routes[1].Path)

	wild := newRoutePatterns([]string{AnyIdentifier}, []string{AnyIdentifier})
	assert.Len(t, wild.extract(src, "a.php"), 3)
}
