package model

import "time"

// Counter 原子自增计数器，如 orderSequence_2026
type Counter struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Seq       int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (Counter) TableName() string { return "counters" }
