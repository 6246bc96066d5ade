package model

import "time"

type Lead struct {
	ID        int       `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Location  string    `db:"location" json:"location"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Address returns the recipient address for the given channel.
func (l *Lead) Address(channel string) string {
	if channel == ChannelSMS {
		return l.Phone
	}
	return l.Email
}
