package entities

import (
	"time"
)

type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"size:254;uniqueIndex" json:"email"`
	Username  string `gorm:"size:150;uniqueIndex" json:"username"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Password  string `gorm:"size:128" json:"-"`
	AvatarURL string `json:"avatar,omitempty"`

	Timestamp
}

type Subscription struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"uniqueIndex:idx_subscription_pair" json:"user_id"`
	SubscribedToID int64     `gorm:"uniqueIndex:idx_subscription_pair" json:"subscribed_to_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	User         *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SubscribedTo *User `gorm:"foreignKey:SubscribedToID;constraint:OnDelete:CASCADE"`
}
