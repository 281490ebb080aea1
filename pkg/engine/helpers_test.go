package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/config"
	"github.com/getmockd/faultmock/pkg/datasource"
	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/store"
	"github.com/getmockd/faultmock/pkg/value"
)

// snapshotFrom compiles a YAML route file into a snapshot.
func snapshotFrom(t *testing.T, routesYAML string, blobs map[string]string) *store.Snapshot {
	t.Helper()
	rf, err := config.ParseRoutes("routes.yaml", []byte(routesYAML))
	require.NoError(t, err)

	defaults := route.BuiltinDefaults()
	if rf.Defaults != nil {
		defaults, err = route.CompileDefaults(rf.Defaults)
		require.NoError(t, err)
	}

	data := datasource.Map{}
	for k, raw := range blobs {
		v, err := value.Parse([]byte(raw))
		require.NoError(t, err)
		data[k] = v
	}
	return store.NewSnapshot(rf.Routes, defaults, data)
}

const usersRoutes = `
routes:
  - method: GET
    path: /users/:id
    conditions:
      - when: {params.id: "123"}
        response:
          statusCode: 200
          body: {data: {id: "123"}}
    defaultResponse:
      statusCode: 404
      body: {error: "User {{params.id}} not found"}
  - method: GET
    path: /users
    defaultResponse:
      headers:
        X-Total-Filter: "{{query.status}}"
      body:
        dataFile: users.json
        filter: {status: "{{query.status}}"}
        limit: "{{query.limit}}"
  - method: POST
    path: /users
    conditions:
      - when: {$and: [{body.role: admin}, {headers.x-tenant: {exists: true}}]}
        response:
          statusCode: 201
          body: {created: "{{body.name}}", tenant: "{{headers.x-tenant}}"}
    defaultResponse:
      statusCode: 403
      body: {error: forbidden}
  - method: GET
    path: /missing
    defaultResponse:
      body: {dataFile: nowhere.json}
  - method: DELETE
    path: /users/:id
    defaultResponse:
      statusCode: 204
`

const usersBlob = `[{"id":1,"status":"active"},{"id":2,"status":"inactive"},{"id":3,"status":"active"}]`
