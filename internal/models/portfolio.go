package models

import "github.com/google/uuid"

type TemplateID string

const (
	TemplateMinimal      TemplateID = "minimal"
	TemplateCreative     TemplateID = "creative"
	TemplateProfessional TemplateID = "professional"
)

func (t TemplateID) Valid() bool {
	switch t {
	case TemplateMinimal, TemplateCreative, TemplateProfessional:
		return true
	default:
		return false
	}
}

// SocialLinks is the fixed set of supported profile links. Unset links are
// empty strings, never omitted, so templates can render without nil checks.
type SocialLinks struct {
	Website   string `json:"website"`
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	YouTube   string `json:"youtube"`
	Dribbble  string `json:"dribbble"`
	Behance   string `json:"behance"`
}

type Customization struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	FontFamily      string `json:"fontFamily"`
	ShowContactForm bool   `json:"showContactForm"`
}

func DefaultCustomization() Customization {
	return Customization{
		PrimaryColor:    "#3B82F6",
		SecondaryColor:  "#1E40AF",
		FontFamily:      "Inter",
		ShowContactForm: true,
	}
}

type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type Portfolio struct {
	BaseModel
	UserID        uuid.UUID     `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	Bio           string        `json:"bio" gorm:"type:varchar(2000);not null;default:''"`
	Headline      string        `json:"headline" gorm:"type:varchar(200);not null;default:''"`
	Skills        []string      `json:"skills" gorm:"serializer:json"`
	SocialLinks   SocialLinks   `json:"socialLinks" gorm:"serializer:json"`
	TemplateID    TemplateID    `json:"templateId" gorm:"type:varchar(20);not null;default:'minimal'"`
	Customization Customization `json:"customization" gorm:"serializer:json"`
	SEO           SEO           `json:"seo" gorm:"serializer:json"`
	IsPublished   bool          `json:"isPublished" gorm:"not null;default:true"`
}

// NewPortfolio returns the empty portfolio created alongside every account.
func NewPortfolio(userID uuid.UUID) Portfolio {
	return Portfolio{
		UserID:        userID,
		Skills:        []string{},
		TemplateID:    TemplateMinimal,
		Customization: DefaultCustomization(),
		SEO:           SEO{Keywords: []string{}},
		IsPublished:   true,
	}
}
