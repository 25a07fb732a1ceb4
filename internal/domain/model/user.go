package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Not exposed
	Motto          []byte    `json:"-"` // ciphertext; decrypted only on read
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
