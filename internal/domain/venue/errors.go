package venue

import "errors"

var (
	ErrUnauthenticated    = errors.New("sign in to submit a place")
	ErrNameRequired       = errors.New("name must be at least 2 characters")
	ErrNameTooLong        = errors.New("name is too long")
	ErrAddressRequired    = errors.New("address must be at least 2 characters")
	ErrNoImages           = errors.New("at least one image is required")
	ErrTooManyImages      = errors.New("you can upload up to 3 images")
	ErrUnknownAmenity     = errors.New("unknown amenity")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrAddressNotFound    = errors.New("address could not be located")
	ErrVenueNotFound      = errors.New("place not found")
	ErrImageUploadFailed  = errors.New("image upload failed")
	ErrSaveFailed         = errors.New("could not save the place")
)
