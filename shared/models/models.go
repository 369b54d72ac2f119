package models

import (
	"time"

	"github.com/google/uuid"
)

// ID represents a unique identifier
type ID string

// GenerateID creates a new UUID-valued ID
func GenerateID() ID {
	return ID(uuid.New().String())
}

// ParseID creates an ID from string
func ParseID(id string) (ID, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// IsZero reports whether the ID has not been assigned yet
func (id ID) IsZero() bool {
	return id == ""
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// Quantity represents a strictly positive item count
type Quantity int

// Valid reports whether the quantity is positive
func (q Quantity) Valid() bool {
	return q > 0
}

// Timestamps represents creation and update times
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTimestamps creates new timestamps
func NewTimestamps() Timestamps {
	now := time.Now()
	return Timestamps{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update updates the UpdatedAt timestamp
func (t Timestamps) Update() Timestamps {
	t.UpdatedAt = time.Now()
	return t
}

// Version represents entity version for optimistic locking
type Version struct {
	Value int
}

// NewVersion creates new version
func NewVersion() Version {
	return Version{Value: 1}
}

// Update increments version
func (v Version) Update() Version {
	v.Value++
	return v
}
