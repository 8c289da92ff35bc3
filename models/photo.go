package models

// Photo represents an ingested photograph in the database using GORM.
// It corresponds to the 'photos' table. The primary key is the content hash of
// the file bytes, so re-uploading identical bytes never creates a second row.
type Photo struct {
	ID        string `gorm:"primaryKey" json:"id"` // content hash of the file bytes
	FilePath  string `gorm:"not null" json:"file_path"`
	OrigName  string `gorm:"" json:"orig_name"`
	Width     int    `gorm:"" json:"width"`
	Height    int    `gorm:"" json:"height"`
	NoFace    bool   `gorm:"not null;default:false" json:"no_face"`
	TakenAt   *int64 `gorm:"index" json:"taken_at,omitempty"` // Nullable, Unix timestamp from EXIF
	CreatedAt int64  `gorm:"not null;autoCreateTime" json:"created_at"`

	// Relationships
	Faces []Face `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"faces,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
