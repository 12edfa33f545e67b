package domain

import (
	"encoding/json"
	"time"
)

type ModelType string

const (
	ModelTypeCheckpoint       ModelType = "Checkpoint"
	ModelTypeLORA             ModelType = "LORA"
	ModelTypeLoCon            ModelType = "LoCon"
	ModelTypeDoRA             ModelType = "DoRA"
	ModelTypeTextualInversion ModelType = "TextualInversion"
	ModelTypeHypernetwork     ModelType = "Hypernetwork"
	ModelTypeVAE              ModelType = "VAE"
	ModelTypeControlnet       ModelType = "Controlnet"
	ModelTypeUpscaler         ModelType = "Upscaler"
	ModelTypeMotionModule     ModelType = "MotionModule"
	ModelTypeAestheticGrad    ModelType = "AestheticGradient"
	ModelTypeWildcards        ModelType = "Wildcards"
	ModelTypePoses            ModelType = "Poses"
	ModelTypeWorkflows        ModelType = "Workflows"
	ModelTypeDetection        ModelType = "Detection"
	ModelTypeOther            ModelType = "Other"
)

// Model mirrors one entry of the upstream /models listing. The external
// numeric id is the stable identity under which the entry is persisted.
type Model struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Type          ModelType      `json:"type"`
	NSFW          bool           `json:"nsfw"`
	Tags          []string       `json:"tags"`
	Creator       Creator        `json:"creator"`
	Stats         ModelStats     `json:"stats"`
	ModelVersions []ModelVersion `json:"modelVersions"`

	// Raw holds the undecoded upstream entry for the data column.
	Raw json.RawMessage `json:"-"`
}

type Creator struct {
	Username string `json:"username"`
	Image    string `json:"image"`
}

type ModelStats struct {
	DownloadCount int64   `json:"downloadCount"`
	FavoriteCount int64   `json:"favoriteCount"`
	CommentCount  int64   `json:"commentCount"`
	RatingCount   int64   `json:"ratingCount"`
	Rating        float64 `json:"rating"`
}

type ModelVersion struct {
	ID           int64          `json:"id"`
	ModelID      int64          `json:"modelId"`
	Name         string         `json:"name"`
	BaseModel    string         `json:"baseModel"`
	Description  string         `json:"description"`
	CreatedAt    time.Time      `json:"createdAt"`
	PublishedAt  *time.Time     `json:"publishedAt"`
	DownloadURL  string         `json:"downloadUrl"`
	TrainedWords []string       `json:"trainedWords"`
	Files        []ModelFile    `json:"files"`
	Images       []VersionImage `json:"images"`
}

type ModelFile struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	SizeKB      float64    `json:"sizeKB"`
	Primary     bool       `json:"primary"`
	Hashes      FileHashes `json:"hashes"`
	DownloadURL string     `json:"downloadUrl"`
}

type FileHashes struct {
	AutoV1 string `json:"AutoV1"`
	AutoV2 string `json:"AutoV2"`
	SHA256 string `json:"SHA256"`
	CRC32  string `json:"CRC32"`
	BLAKE3 string `json:"BLAKE3"`
}

// VersionImage is a preview attached to a model version. Type is "image"
// or "video"; only images qualify as cover candidates.
type VersionImage struct {
	URL    string `json:"url"`
	NSFW   string `json:"nsfw"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Hash   string `json:"hash"`
	Type   string `json:"type"`
}

// HasVersion reports whether the model already carries a version with the
// given external id.
func (m *Model) HasVersion(id int64) bool {
	for _, v := range m.ModelVersions {
		if v.ID == id {
			return true
		}
	}
	return false
}
