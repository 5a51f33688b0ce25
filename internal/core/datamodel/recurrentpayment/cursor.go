package recurrentpayment

import "time"

// JobCursor remembers the creation time up to which a job has read new rows.
type JobCursor struct {
	Name      string    `gorm:"primaryKey;column:name"`
	LastDt    time.Time `gorm:"column:last_dt;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (JobCursor) TableName() string {
	return "recurrent_job_cursors"
}
