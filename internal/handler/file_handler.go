/*
Package handler provides the HTTP handlers and routing setup for the relay
server.

This file contains the presigned-URL handlers backing file transfers: the
sender announces a file over the relay (send_file) and uploads the bytes via
a presigned URL; receivers accept (accept_file) and download the same way.
*/
package handler

import (
	"net/http"
	"strings"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/app/storage"
	"partyrelay/internal/pkg/auth/jwt"
	"partyrelay/internal/pkg/errs"
	"partyrelay/internal/pkg/req"
	"partyrelay/internal/pkg/resp"
)

// roomFromToken extracts and validates the room access token on a file
// request. File endpoints require the caller to hold a token for the room
// the transfer belongs to.
func roomFromToken(r *http.Request, secret string) (string, *errs.CustomError) {
	authHeader := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return "", errs.NewError(errs.ErrUnauthorized)
	}

	payload, err := jwt.ParseToken(tokenString, secret)
	if err != nil {
		return "", errs.NewError(errs.ErrUnauthorized)
	}

	return directory.Normalize(payload.Room), nil
}

type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUpload issues a presigned upload URL for a file transfer.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		roomID, customErr := roomFromToken(r, deps.Config.JWTSecret)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.FileName == "" || input.MimeType == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := storage.ValidateSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := storage.BuildKey(roomID, input.FileName)

		url, err := deps.Storage.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"key":       key,
			"uploadUrl": url,
			"expiresIn": int(storage.PresignedURLDuration.Seconds()),
		})
	}
}

// HandleUploadFile accepts a multipart upload and stores it server-side.
// This is the fallback for clients that cannot PUT to a presigned URL, e.g.
// behind proxies that strip custom methods or headers.
func HandleUploadFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		roomID, customErr := roomFromToken(r, deps.Config.JWTSecret)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, storage.MaxTransferSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if customErr := storage.ValidateSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		key := storage.BuildKey(roomID, header.Filename)

		if err := deps.Storage.Upload(r.Context(), key, mimeType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"key": key,
		})
	}
}

// HandleDeleteFile removes an uploaded file, e.g. when the sender revokes a
// transfer before anyone accepted it.
func HandleDeleteFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		roomID, customErr := roomFromToken(r, deps.Config.JWTSecret)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := r.URL.Query().Get("key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !storage.KeyInRoom(key, roomID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileKeyInvalid))
			return
		}

		if err := deps.Storage.Delete(r.Context(), key); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandlePresignDownload issues a presigned download URL for a received file.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageUnavailable))
			return
		}

		roomID, customErr := roomFromToken(r, deps.Config.JWTSecret)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := r.URL.Query().Get("key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !storage.KeyInRoom(key, roomID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileKeyInvalid))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), key, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"downloadUrl": url,
			"expiresIn":   int(storage.PresignedURLDuration.Seconds()),
		})
	}
}
