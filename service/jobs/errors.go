package jobs

import (
	"errors"

	"github.com/tnqbao/gau-marine-service/repository"
)

var (
	ErrNoOwner         = errors.New("no authenticated owner")
	ErrJobNotFound     = repository.ErrJobNotFound
	ErrDuplicateSerial = repository.ErrDuplicateSerial
	ErrFileNotFound    = errors.New("attachment not found")
	ErrFileExists      = errors.New("an attachment with that name already exists")
	ErrInvalidField    = errors.New("invalid field or value")
	ErrNothingUploaded = errors.New("no file was uploaded")
)
