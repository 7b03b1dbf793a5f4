// Package model holds the entity types shared by the backend, the cache and
// the console.
package model

import (
	"time"
)

// BaseEntity carries the server-assigned fields every entity has.
type BaseEntity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b BaseEntity) GetID() string { return b.ID }

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleUser    Role = "user"
	RoleManager Role = "manager"
)

// Roles lists the roles in display order.
var Roles = []Role{RoleAdmin, RoleUser, RoleManager}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleUser:
		return "User"
	}
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleManager:
		return true
	}
	return false
}

type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// User as returned by the API. The password never comes back.
type User struct {
	BaseEntity
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	Active   bool     `json:"active"`
	Location Location `json:"location"`
}

// Ankara
const (
	DefaultLatitude  = 39.9334
	DefaultLongitude = 32.8597
)
