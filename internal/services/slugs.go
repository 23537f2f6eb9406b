package services

import (
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

const slugMinLength = 8

// ErrInvalidSlug is returned for slugs that do not decode to a single id
var ErrInvalidSlug = errors.New("invalid composition slug")

// SlugCodec turns database ids into short public slugs and back
type SlugCodec struct {
	data *hashids.HashIDData
}

func NewSlugCodec(salt string) *SlugCodec {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = slugMinLength
	return &SlugCodec{data: data}
}

// Encode returns the slug for id
func (s *SlugCodec) Encode(id uint) (string, error) {
	h, err := hashids.NewWithData(s.data)
	if err != nil {
		return "", err
	}
	slug, err := h.Encode([]int{int(id)})
	if err != nil {
		return "", fmt.Errorf("failed to encode id %d: %w", id, err)
	}
	return slug, nil
}

// Decode returns the id behind slug
func (s *SlugCodec) Decode(slug string) (uint, error) {
	h, err := hashids.NewWithData(s.data)
	if err != nil {
		return 0, err
	}
	ids, err := h.DecodeWithError(slug)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, ErrInvalidSlug
	}
	return uint(ids[0]), nil
}
