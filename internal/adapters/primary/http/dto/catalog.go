package dto

import (
	"time"

	"civitai-archiver/internal/core/domain"
	"civitai-archiver/internal/core/services"
)

type ModelVersionResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	BaseModel    string     `json:"base_model"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	DownloadURL  string     `json:"download_url"`
	TrainedWords []string   `json:"trained_words,omitempty"`
	FileCount    int        `json:"file_count"`
	ImageCount   int        `json:"image_count"`
}

type ModelResponse struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type"`
	NSFW        bool                   `json:"nsfw"`
	Creator     string                 `json:"creator"`
	Tags        []string               `json:"tags,omitempty"`
	Versions    []ModelVersionResponse `json:"versions"`
}

type ListModelsResponse struct {
	Items      []ModelResponse `json:"items"`
	Total      int64           `json:"total"`
	PageSize   int             `json:"page_size"`
	NextOffset int             `json:"next_offset"`
}

type ImageResponse struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Hash      string `json:"hash,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	NSFWLevel string `json:"nsfw_level,omitempty"`
	Username  string `json:"username,omitempty"`
	PostID    int64  `json:"post_id,omitempty"`
	Archived  bool   `json:"archived"`
}

type ListImagesResponse struct {
	Items      []ImageResponse `json:"items"`
	Total      int64           `json:"total"`
	PageSize   int             `json:"page_size"`
	NextOffset int             `json:"next_offset"`
}

type TypeCountResponse struct {
	Type     string `json:"type"`
	Models   int64  `json:"models"`
	Versions int64  `json:"versions"`
}

type StatsResponse struct {
	Models    int64               `json:"models"`
	Versions  int64               `json:"versions"`
	Images    int64               `json:"images"`
	ByType    []TypeCountResponse `json:"by_type"`
	LatestRun *RunResponse        `json:"latest_run,omitempty"`
}

type RunResponse struct {
	ID              string     `json:"id"`
	AssetType       string     `json:"asset_type"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	PagesFetched    int        `json:"pages_fetched"`
	EntriesIngested int        `json:"entries_ingested"`
	EntriesSkipped  int        `json:"entries_skipped"`
	Error           string     `json:"error,omitempty"`
}

func ToModelResponse(m *domain.Model) ModelResponse {
	versions := make([]ModelVersionResponse, 0, len(m.ModelVersions))
	for i := range m.ModelVersions {
		versions = append(versions, ToModelVersionResponse(&m.ModelVersions[i]))
	}
	return ModelResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Type:        string(m.Type),
		NSFW:        m.NSFW,
		Creator:     m.Creator.Username,
		Tags:        m.Tags,
		Versions:    versions,
	}
}

func ToModelVersionResponse(v *domain.ModelVersion) ModelVersionResponse {
	return ModelVersionResponse{
		ID:           v.ID,
		Name:         v.Name,
		BaseModel:    v.BaseModel,
		PublishedAt:  v.PublishedAt,
		DownloadURL:  v.DownloadURL,
		TrainedWords: v.TrainedWords,
		FileCount:    len(v.Files),
		ImageCount:   len(v.Images),
	}
}

func ToImageResponse(img *domain.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		URL:       img.URL,
		Hash:      img.Hash,
		Width:     img.Width,
		Height:    img.Height,
		NSFWLevel: img.NSFWLevel,
		Username:  img.Username,
		PostID:    img.PostID,
		Archived:  img.FilePath != "",
	}
}

func ToStatsResponse(stats *services.CatalogStats) StatsResponse {
	byType := make([]TypeCountResponse, 0, len(stats.ByType))
	for _, tc := range stats.ByType {
		byType = append(byType, TypeCountResponse{
			Type:     tc.Type,
			Models:   tc.Models,
			Versions: tc.Versions,
		})
	}
	resp := StatsResponse{
		Models:   stats.Models,
		Versions: stats.Versions,
		Images:   stats.Images,
		ByType:   byType,
	}
	if stats.LatestRun != nil {
		run := ToRunResponse(stats.LatestRun)
		resp.LatestRun = &run
	}
	return resp
}

func ToRunResponse(run *domain.ScrapeRun) RunResponse {
	return RunResponse{
		ID:              run.ID.String(),
		AssetType:       string(run.AssetType),
		Status:          string(run.Status),
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		PagesFetched:    run.PagesFetched,
		EntriesIngested: run.EntriesIngested,
		EntriesSkipped:  run.EntriesSkipped,
		Error:           run.Error,
	}
}
