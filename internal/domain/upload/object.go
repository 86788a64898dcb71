package upload

import "time"

// Object is the metadata row for one stored image. Objects are immutable:
// replacing an image always writes a new key.
type Object struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;index:idx_objects_owner_prefix" json:"owner_id"`
	Prefix      string    `gorm:"column:prefix;index:idx_objects_owner_prefix" json:"prefix"`
	SourceName  string    `gorm:"column:source_name" json:"source_name"`
	Key         string    `gorm:"column:object_key;uniqueIndex" json:"-"`
	URL         string    `gorm:"column:url" json:"url"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Size        int64     `gorm:"column:size" json:"size"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Object) TableName() string { return "stored_objects" }
