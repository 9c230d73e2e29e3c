package models

// Message represents one message inside a thread. Messages are append-only:
// once created they are never updated or deleted.
type Message struct {
	BaseModel
	ThreadID string `gorm:"size:36;not null;index" json:"threadId"`
	SenderID string `gorm:"size:36;not null;index" json:"senderId"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Read     bool   `gorm:"default:false" json:"read"`

	// Relations
	Thread Thread `gorm:"foreignKey:ThreadID" json:"-"`
	Sender User   `gorm:"foreignKey:SenderID" json:"-"`
}
