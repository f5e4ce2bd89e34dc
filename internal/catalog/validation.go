package catalog

import (
	"strings"
	"unicode/utf8"
)

const (
	minTitleLen       = 2
	maxTitleLen       = 200
	maxCategoryLen    = 50
	maxCreatorNameLen = 100
	maxNameLen        = 100
)

var (
	errTitleRequired    = Validation("title is required")
	errTitleLength      = Validation("title must be between 2 and 200 characters")
	errCategoryRequired = Validation("category is required")
	errCategoryLength   = Validation("category must be at most 50 characters")
	errCreatorRequired  = Validation("creator name is required")
	errCreatorLength    = Validation("creator name must be at most 100 characters")
	errCreatorMissing   = Validation("creator does not exist")
	errUserNameRequired = Validation("user name is required")
	errEmailRequired    = Validation("email is required")
	errEmailInvalid     = Validation("email is invalid")
	errUserMissing      = Validation("user does not exist")
	errPlaylistRequired = Validation("playlist name is required")
	errPlaylistLength   = Validation("playlist name must be at most 100 characters")
	errContentMissing   = Validation("content does not exist")
)

func validateTitle(title string) error {
	if title == "" {
		return errTitleRequired
	}
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return errTitleLength
	}
	return nil
}

func validateCategory(category string) error {
	if category == "" {
		return errCategoryRequired
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return errCategoryLength
	}
	return nil
}

func validateCreatorName(name string) error {
	if name == "" {
		return errCreatorRequired
	}
	if utf8.RuneCountInString(name) > maxCreatorNameLen {
		return errCreatorLength
	}
	return nil
}

func validateUser(name, email string) error {
	if name == "" {
		return errUserNameRequired
	}
	if email == "" {
		return errEmailRequired
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return errEmailInvalid
	}
	return nil
}

func validatePlaylistName(name string) error {
	if name == "" {
		return errPlaylistRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return errPlaylistLength
	}
	return nil
}
