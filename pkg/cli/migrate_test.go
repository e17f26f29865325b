package cli

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestIndexConfig(t *testing.T) {
	cfg := getIndexConfig("dev")
	gt.Array(t, cfg.Collections).Length(1)
	gt.Value(t, cfg.Collections[0].Name).Equal("dev_activities")
	gt.Array(t, cfg.Collections[0].Indexes[0].Fields).Length(2)

	gt.Value(t, getIndexConfig("").Collections[0].Name).Equal("activities")
	gt.NoError(t, cfg.Validate())
	gt.Array(t, collectionNames(cfg)).Equal([]string{"dev_activities"})
}

func TestFirestoreDatabaseID(t *testing.T) {
	gt.Value(t, firestoreDatabaseID("")).Equal("(default)")
	gt.Value(t, firestoreDatabaseID("trustflow")).Equal("trustflow")
}
