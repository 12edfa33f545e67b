package domain

import "encoding/json"

type AssetType string

const (
	AssetModels AssetType = "models"
	AssetImages AssetType = "images"
)

func (t AssetType) Valid() bool {
	return t == AssetModels || t == AssetImages
}

// AssetPage is one decoded listing response. Items stay raw so the
// per-asset-type handler decides how to decode each entry.
type AssetPage struct {
	Items    []json.RawMessage `json:"items"`
	Metadata PageMetadata      `json:"metadata"`
}

// PageMetadata carries the pagination cursor. An absent NextPage ends
// the iteration.
type PageMetadata struct {
	NextCursor  string `json:"nextCursor"`
	NextPage    string `json:"nextPage"`
	CurrentPage int    `json:"currentPage"`
	PageSize    int    `json:"pageSize"`
	TotalItems  int64  `json:"totalItems"`
	TotalPages  int    `json:"totalPages"`
}
