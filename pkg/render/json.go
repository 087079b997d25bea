package render

import (
	"encoding/json"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// jsonDocument is the stable shape written by JSON: a hand-picked
// summary of collection.yaml under "collection", and the index items
// encoded with collection.Item's own json tags under "items".
type jsonDocument struct {
	Collection jsonCollectionMeta `json:"collection"`
	Items      []collection.Item  `json:"items"`
}

type jsonCollectionMeta struct {
	Name               string `json:"name"`
	CollectionType     string `json:"collection_type"`
	Path               string `json:"path"`
	TotalItems         int    `json:"total_items"`
	CollectionOverview string `json:"collection_overview,omitempty"`
}

// JSON renders the collection as a single JSON document, indented for
// human readability.
func JSON(idx *collection.Index, cfg *collection.Config) ([]byte, error) {
	doc := jsonDocument{
		Collection: jsonCollectionMeta{
			Name:               cfg.Name,
			CollectionType:     cfg.CollectionType,
			Path:               cfg.RootPath,
			TotalItems:         len(idx.Items),
			CollectionOverview: overviewText(idx),
		},
		Items: idx.Items,
	}
	return json.MarshalIndent(doc, "", "  ")
}
