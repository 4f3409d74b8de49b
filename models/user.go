package models

import (
	"time"
)

// User is the owner of one or more challenges. Authentication lives outside
// this service; only the ownership record is kept here.
type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}
