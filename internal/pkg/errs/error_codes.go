/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both inside the server
and in what is reported back to clients over REST responses and relay events.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Membership Business Logic Errors
const (
	// ErrFieldsEmpty indicates a join with a blank username or room after normalization.
	ErrFieldsEmpty = 2001

	// ErrUsernameTaken indicates the normalized username is already in use inside the target room.
	ErrUsernameTaken = 2002

	// ErrRoomFull indicates a private room already at its member capacity.
	ErrRoomFull = 2003

	// ErrInvalidRoom indicates a structurally invalid room state or a missing room
	// identifier on a room-scoped event.
	ErrInvalidRoom = 2004

	// ErrRoomNotFound indicates a lookup miss, e.g. chat history for a nonexistent room.
	ErrRoomNotFound = 2005

	// ErrRoomExists indicates an explicit creation attempt for a room id that already exists.
	ErrRoomExists = 2006

	// ErrRoomTypeInvalid indicates an unknown room type on creation or joining.
	ErrRoomTypeInvalid = 2007

	// ErrFileTooLarge indicates an upload presign request above the size limit.
	ErrFileTooLarge = 2101

	// ErrFileKeyInvalid indicates a file key outside the caller's room prefix.
	ErrFileKeyInvalid = 2102
)

// 3xxx: Session and Protocol Errors
const (
	// ErrNotJoined indicates a room or relay event from a connection that never joined.
	ErrNotJoined = 3001

	// ErrUnknownEvent indicates an event name outside the relay contract.
	ErrUnknownEvent = 3002

	// ErrUnauthorized indicates a missing or invalid room access token.
	ErrUnauthorized = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrStorageUnavailable indicates the file storage backend is not configured.
	ErrStorageUnavailable = 5001
)
