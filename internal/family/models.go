package family

import "time"

// User is a guardian, teacher or admin account. Alert fan-out resolves
// recipients from active users linked to a child.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Password       string    `gorm:"-" json:"password,omitempty"`
	HashedPassword string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone"`
	Role           string    `gorm:"default:'parent';index" json:"role"`
	Status         string    `gorm:"default:'active';index" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Child is a tracked subject. DeviceID pairs the child with a reporting
// phone; it must be unique among active children, enforced at assignment time
// (AssignDeviceHandler), not by the ingestion path.
type Child struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	DeviceID    *string    `gorm:"index" json:"device_id"`
	Status      string     `gorm:"default:'active';index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ParentChild struct {
	ParentID uint `gorm:"primaryKey;autoIncrement:false" json:"parent_id"`
	ChildID  uint `gorm:"primaryKey;autoIncrement:false" json:"child_id"`
}

type TeacherChild struct {
	TeacherID uint `gorm:"primaryKey;autoIncrement:false" json:"teacher_id"`
	ChildID   uint `gorm:"primaryKey;autoIncrement:false" json:"child_id"`
}

func (User) TableName() string         { return "family.users" }
func (Child) TableName() string        { return "family.children" }
func (ParentChild) TableName() string  { return "family.parent_child" }
func (TeacherChild) TableName() string { return "family.teacher_child" }
