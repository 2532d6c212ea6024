/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and relay error events.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// A zero Status defaults to HTTP 200 when the error is built.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Membership Business Logic Errors
	ErrFieldsEmpty:     {Code: ErrFieldsEmpty, Message: "Username and room are required."},
	ErrUsernameTaken:   {Code: ErrUsernameTaken, Message: "Username is taken."},
	ErrRoomFull:        {Code: ErrRoomFull, Message: "This room is full."},
	ErrInvalidRoom:     {Code: ErrInvalidRoom, Message: "Invalid room."},
	ErrRoomNotFound:    {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrRoomExists:      {Code: ErrRoomExists, Message: "Room already exists."},
	ErrRoomTypeInvalid: {Code: ErrRoomTypeInvalid, Message: "Invalid room type."},
	ErrFileTooLarge:    {Code: ErrFileTooLarge, Message: "File is too large."},
	ErrFileKeyInvalid:  {Code: ErrFileKeyInvalid, Message: "Invalid file key."},

	// 3xxx: Session and Protocol Errors
	ErrNotJoined:    {Code: ErrNotJoined, Message: "Join with a username first."},
	ErrUnknownEvent: {Code: ErrUnknownEvent, Message: "Unknown event."},
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageUnavailable: {Code: ErrStorageUnavailable, Message: "File storage is not available.", Status: http.StatusServiceUnavailable},
}
