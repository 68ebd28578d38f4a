package bigquery

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestConfiguredTablesTrimsAndSkipsBlank(t *testing.T) {
	assert.Equal(t, []string{"order_events"}, configuredTables(config.BigQueryConfig{OrderEventsTable: " order_events "}))
	assert.Empty(t, configuredTables(config.BigQueryConfig{OrderEventsTable: "  "}))
}

func TestClientOptions(t *testing.T) {
	cases := []struct {
		name string
		gcp  config.GCPConfig
		want int
	}{
		{"json wins over file", config.GCPConfig{CredentialsJSON: `{"dummy":"value"}`, ApplicationCredentials: "/tmp/creds"}, 1},
		{"file only", config.GCPConfig{ApplicationCredentials: "/tmp/creds"}, 1},
		{"ambient credentials", config.GCPConfig{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, clientOptions(tc.gcp), tc.want)
		})
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "shop", OrderEventsTable: "order_events"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{OrderEventsTable: "order_events"}, nil)
	require.ErrorIs(t, err, errDatasetRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "shop"}, nil)
	require.ErrorIs(t, err, errTableNameRequired)
}

func TestDescribeMetadataErr(t *testing.T) {
	err := describeMetadataErr("table", "order_events", &googleapi.Error{Code: http.StatusNotFound})
	assert.EqualError(t, err, `table "order_events" does not exist`)

	denied := &googleapi.Error{Code: http.StatusForbidden}
	err = describeMetadataErr("dataset", "shop", denied)
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), `checking dataset "shop"`)
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), errClientNotInitialized)
	assert.ErrorIs(t, c.InsertRows(context.Background(), "order_events", []any{1}), errClientNotInitialized)
	assert.NoError(t, c.Close())
}
