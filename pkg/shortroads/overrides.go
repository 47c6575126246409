package shortroads

import (
	"encoding/json"
	"log"
	"os"

	"github.com/mapfold/roadweld/pkg/datastructure"
)

// OverrideFilename is the well-known curation file: a JSON array of road
// identifiers to merge, used to quickly test overrides to some ways before
// upstreaming the tags in OSM. The name is a fixed contract with the rest of
// the preprocessing pipeline, not a flag.
const OverrideFilename = "merge_osm_ways.json"

// LoadOverrides reads the manual override list. A missing or malformed file
// is a valid state meaning no overrides.
func LoadOverrides(path string) []datastructure.RoadID {
	if path == "" {
		path = OverrideFilename
	}
	bb, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var ids []datastructure.RoadID
	if err := json.Unmarshal(bb, &ids); err != nil {
		log.Printf("ignoring malformed override file %s: %v", path, err)
		return nil
	}
	return ids
}
