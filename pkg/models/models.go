package models

// FileRecord is the durable metadata for one stored blob, keyed by the SHA-1
// of its content. The json tags are the wire format of every endpoint.
type FileRecord struct {
	SHA1 string `gorm:"column:sha1;primaryKey" json:"sha1"`
	URL  string `gorm:"column:url" json:"url"`
	Name string `gorm:"column:name" json:"name"`
	Path string `gorm:"column:path" json:"path"`
	Size int64  `gorm:"column:size" json:"size"`
	Time int64  `gorm:"column:time;index" json:"time"`
}

// TableName keeps the original table name.
func (FileRecord) TableName() string {
	return "fileinfo"
}
