package models

// ProductCondition enum
type ProductCondition string

const (
	ConditionNew         ProductCondition = "new"
	ConditionUsed        ProductCondition = "used"
	ConditionRefurbished ProductCondition = "refurbished"
)

// Product represents a marketplace listing
type Product struct {
	BaseModel
	ProductName string           `gorm:"size:255;not null;index" json:"productName"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Category    string           `gorm:"size:100;not null;index" json:"category"`
	Price       float64          `gorm:"not null;index" json:"price"`
	Condition   ProductCondition `gorm:"size:20;not null" json:"condition"`
	Location    string           `gorm:"size:255;not null" json:"location"`
	Images      []string         `gorm:"serializer:json" json:"productImage"`
	OwnerID     string           `gorm:"size:36;index" json:"ownerId"`

	// Relations
	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}
