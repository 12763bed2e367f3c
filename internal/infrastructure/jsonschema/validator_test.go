package jsonschema_test

import (
	"testing"

	"github.com/morinoparty/mpm/internal/infrastructure/jsonschema"
	"github.com/stretchr/testify/assert"
)

func TestValidateManifest_Valid(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name":"myserver","schemaVersion":1,"plugins":{"Essentials":"latest"}}`)
	assert.NoError(t, jsonschema.ValidateManifest(data))
}

func TestValidateManifest_MissingPlugins(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name":"myserver"}`)
	assert.Error(t, jsonschema.ValidateManifest(data))
}

func TestValidateManifest_PluginValueNotString(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name":"myserver","plugins":{"Essentials":3}}`)
	assert.Error(t, jsonschema.ValidateManifest(data))
}

func TestValidateCatalogue_Valid(t *testing.T) {
	t.Parallel()

	data := []byte(`{"id":"owner/repo","repositories":[{"type":"github","id":"owner/repo"}]}`)
	assert.NoError(t, jsonschema.ValidateCatalogue(data))
}

func TestValidateCatalogue_MissingRepositories(t *testing.T) {
	t.Parallel()

	data := []byte(`{"id":"owner/repo","repositories":[]}`)
	assert.Error(t, jsonschema.ValidateCatalogue(data))
}
