package domain

import "errors"

var ErrNotFound = errors.New("member_not_found")
