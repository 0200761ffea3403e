package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a site visitor account. Profile fields (username, avatar)
// live on the same row; the back office lists them as the profiles view.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Username  string         `gorm:"size:100" json:"username"`
	AvatarURL string         `gorm:"size:500" json:"avatar_url"`
	Role      string         `gorm:"size:50;default:user" json:"role"` // admin, user
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken is the server-side half of a session. Stored hashed; rotated
// on every refresh, revoked on sign-out.
type RefreshToken struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
	ReplacedByTokenID *uint      `json:"-"`
	CreatedByIP       string     `gorm:"size:50" json:"-"`
	UserAgent         string     `gorm:"size:500" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// QuoteFile is the metadata record for one uploaded file of a quote request.
// A row exists only after the blob upload succeeded; rows are never mutated
// and are deleted only through the admin console (blob first, then row).
type QuoteFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:1000" json:"description"`
	StoragePath string    `gorm:"uniqueIndex;size:500;not null" json:"storage_path"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	FileType    string    `gorm:"size:100" json:"file_type"` // MIME type
	FileSize    int64     `json:"file_size"`
	Category    string    `gorm:"size:20;default:project" json:"category"` // project, reference
	Plan        string    `gorm:"size:50" json:"plan"`
	ProjectType string    `gorm:"size:50" json:"project_type"`
	PreferredAt string    `gorm:"size:50" json:"preferred_at"` // requested delivery date, free-form
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// ContactSubmission is a message from the public contact form.
type ContactSubmission struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Email     string         `gorm:"size:255;not null" json:"email"`
	Phone     string         `gorm:"size:50" json:"phone"`
	Subject   string         `gorm:"size:300" json:"subject"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Status    string         `gorm:"size:20;default:new" json:"status"` // new, read, replied
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ServiceOffering is a line in the public services listing. Changes made in
// the back office are broadcast to subscribed clients.
type ServiceOffering struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"size:1000" json:"description"`
	Icon        string         `gorm:"size:100" json:"icon"`
	Plan        string         `gorm:"size:50" json:"plan"` // basic, standard, premium, custom
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PortfolioProject is a published (or draft) portfolio entry.
type PortfolioProject struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"size:2000" json:"description"`
	Category    string         `gorm:"size:100" json:"category"` // residential, commercial, interior
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	IsPublished bool           `gorm:"default:false" json:"is_published"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	CreatedBy   uint           `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (User) TableName() string              { return "users" }
func (RefreshToken) TableName() string      { return "refresh_tokens" }
func (QuoteFile) TableName() string         { return "quote_files" }
func (ContactSubmission) TableName() string { return "contact_submissions" }
func (ServiceOffering) TableName() string   { return "services" }
func (PortfolioProject) TableName() string  { return "projects" }
