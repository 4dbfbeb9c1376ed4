package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a borrower of the fund
type Client struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Document  string    `json:"document" db:"document"`
	Phone     string    `json:"phone" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ClientRequest struct {
	FullName string  `json:"full_name" validate:"required,max=200"`
	Document string  `json:"document" validate:"required,max=50"`
	Phone    string  `json:"phone" validate:"required,max=50"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=300"`
}

type ClientDetail struct {
	Client *Client `json:"client"`
	Loans  []*Loan `json:"loans"`
}

type DeleteClientResponse struct {
	OK           bool `json:"ok"`
	DeletedLoans int  `json:"deleted_loans"`
}
