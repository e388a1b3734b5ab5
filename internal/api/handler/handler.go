package handler

import (
	"beatflow/backend/internal/moderation"
	"beatflow/backend/internal/quota"
	"beatflow/backend/internal/storage"
)

// Handler holds the moderation entry points exposed over HTTP.
type Handler struct {
	Storage  storage.Storage
	Pipeline *moderation.Service
	Quota    *quota.Guard
}

func NewHandler(s storage.Storage, pipeline *moderation.Service, guard *quota.Guard) *Handler {
	return &Handler{Storage: s, Pipeline: pipeline, Quota: guard}
}
