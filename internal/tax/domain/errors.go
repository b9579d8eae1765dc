package domain

import "errors"

var ErrConfigNotFound = errors.New("tax_config_not_found")
