package main

import (
	"github.com/hibiken/asynq"

	holdJob "flashsale-backend/internal/domains/hold/job"
	"flashsale-backend/internal/shared"
	"flashsale-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	releaseHold *holdJob.ReleaseHoldHandler
	expireSweep *holdJob.ExpireHoldsSweepHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		releaseHold: holdJob.NewReleaseHoldHandler(c.HoldService),
		expireSweep: holdJob.NewExpireHoldsSweepHandler(c.HoldService, c.QueueClient),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReleaseHold, h.releaseHold.ProcessTask)
	mux.HandleFunc(shared.TypeExpireHoldsSweep, h.expireSweep.ProcessTask)
}
