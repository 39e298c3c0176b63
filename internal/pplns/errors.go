package pplns

import "errors"

var (
	errMultipleAuthors = errors.New("pplns: multiple pre-runtime authors in header")
	errNoAuthor        = errors.New("pplns: no pre-runtime author in header")
)
