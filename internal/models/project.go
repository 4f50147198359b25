package models

import "github.com/google/uuid"

type MediaType string

const (
	MediaTypeImage         MediaType = "image"
	MediaTypeVideoUpload   MediaType = "video_upload"
	MediaTypeVideoExternal MediaType = "video_external"
)

type Project struct {
	BaseModel
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index:idx_projects_user_order,priority:1;index:idx_projects_user_created"`
	Title            string    `json:"title" gorm:"type:varchar(200);not null"`
	Description      string    `json:"description" gorm:"type:varchar(2000);not null;default:''"`
	MediaType        MediaType `json:"mediaType" gorm:"type:varchar(20);not null"`
	MediaURL         string    `json:"mediaUrl" gorm:"type:text;not null"`
	ThumbnailURL     *string   `json:"thumbnailUrl" gorm:"type:text"`
	StorageKey       *string   `json:"-" gorm:"type:text"`
	SizeBytes        int64     `json:"sizeBytes" gorm:"not null;default:0"`
	ExternalPlatform *string   `json:"externalPlatform" gorm:"type:varchar(20)"`
	ExternalVideoID  *string   `json:"externalVideoId" gorm:"type:varchar(255)"`
	Tags             []string  `json:"tags" gorm:"serializer:json"`
	ProjectURL       string    `json:"projectUrl" gorm:"type:text;not null;default:''"`
	GitHubURL        string    `json:"githubUrl" gorm:"type:text;not null;default:''"`
	DisplayOrder     int       `json:"order" gorm:"column:display_order;not null;default:0;index:idx_projects_user_order,priority:2"`
	IsVisible        bool      `json:"isVisible" gorm:"not null;default:true"`
}

// Uploaded reports whether the project owns an asset in the remote media
// store. External embeds have nothing to clean up on delete.
func (p *Project) Uploaded() bool {
	return p.StorageKey != nil && *p.StorageKey != ""
}
