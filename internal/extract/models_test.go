package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legacyport/internal/types"
)

func TestModels_PropertiesAndMethods(t *testing.T) {
	src := `<?php
class User { public $name; function save(){} }
`
	models := Models(src, "User.php")
	require.Len(t, models, 1)
	assert.Equal(t, types.Model{
		Name:       "User",
		SourceFile: "User.php",
		Properties: []types.Property{{Name: "name", Visibility: types.VisibilityPublic, Type: types.MixedType}},
		Methods:    []string{"save"},
	}, models[0])
}

func TestModels_ExtendsAndVisibility(t *testing.T) {
	src := `<?php
class Admin extends User {
    protected $role;
    private $token;
    public function promote($to) {
        if ($to) { return true; }
    }
}
class Guest {}
`
	models := Models(src, "m.php")
	require.Len(t, models, 2)

	admin := models[0]
	assert.Equal(t, "User", admin.Parent)
	require.Len(t, admin.Properties, 2)
	assert.Equal(t, types.VisibilityProtected, admin.Properties[0].Visibility)
	assert.Equal(t, "token", admin.Properties[1].Name)
	assert.Equal(t, []string{"promote"}, admin.Methods)

	assert.Equal(t, "Guest", models[1].Name)
	assert.Empty(t, models[1].Properties)
}

func TestModels_NoBraceYieldsEmptyModel(t *testing.T) {
	models := Models("<?php class Foo", "broken.php")
	require.Len(t, models, 1)
	assert.Equal(t, "Foo", models[0].Name)
	assert.NotNil(t, models[0].Properties)
	assert.Empty(t, models[0].Properties)
	assert.NotNil(t, models[0].Methods)
	assert.Empty(t, models[0].Methods)
}
