package model

import "time"

// Contact is one address-book entry. OwnerID is set from the
// authenticated caller on create and never changes afterwards.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateContactRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"max=500"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
}

type UpdateContactRequest struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"max=500"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
}

type MassDeleteRequest struct {
	IDs []string `json:"ids"`
}

type ContactListResponse struct {
	Contacts []Contact `json:"contacts"`
}

// DeleteContactResponse mirrors the delete route's shape: the removed
// record plus the caller's refreshed list.
type DeleteContactResponse struct {
	Contact
	MyContacts []Contact `json:"myContacts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
