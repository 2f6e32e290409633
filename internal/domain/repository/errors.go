package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video cannot be found in either source.
	ErrVideoNotFound = errors.New("video not found")

	// ErrChannelNotFound is returned when the provider has no channel with the given ID.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDuplicateMedia is returned when a media row for the same file URL already exists.
	ErrDuplicateMedia = errors.New("media already exists")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound is returned when an uploaded object is missing from the bucket.
	ErrObjectNotFound = errors.New("object not found")
)
