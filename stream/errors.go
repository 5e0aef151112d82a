package stream

import "errors"

// Error taxonomy of the streaming engine. The HTTP adapter matches these with
// errors.Is to pick status codes, and in-flight job futures propagate the same
// values to every waiter.
var (
	// ErrMediaNotFound means the media ID is not in the catalog or its file is
	// gone from disk.
	ErrMediaNotFound = errors.New("media not found")

	// ErrBadSegmentName means the requested file name does not match
	// segment_NNN.ts.
	ErrBadSegmentName = errors.New("invalid segment name")

	// ErrSegmentOutOfRange means the segment number is outside the plan.
	ErrSegmentOutOfRange = errors.New("segment number out of range")

	// ErrUnknownQuality means the quality name is not an available rendition.
	ErrUnknownQuality = errors.New("unknown quality")

	// ErrProbeFailed means probing produced no usable analysis, so streaming
	// cannot be initialized.
	ErrProbeFailed = errors.New("media probe failed")

	// ErrPlaylistWrite means playlists could not be written durably at
	// initialization.
	ErrPlaylistWrite = errors.New("playlist write failed")

	// ErrTranscodeFailed means every eligible encoder backend failed for a
	// segment.
	ErrTranscodeFailed = errors.New("segment transcode failed")

	// ErrMediaBusy means the operation conflicts with jobs currently in
	// flight for the media.
	ErrMediaBusy = errors.New("media has jobs in flight")

	// ErrShutdown means the engine is draining and refuses new work.
	ErrShutdown = errors.New("streaming engine is shutting down")
)
